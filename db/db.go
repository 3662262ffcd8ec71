package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/padraicbc/luckydraw/config"
	"github.com/padraicbc/luckydraw/draw"
	"github.com/padraicbc/luckydraw/models"
)

const pingTimeout = 5 * time.Second

// mysqlDupKeyName is ER_DUP_KEYNAME, returned when an index already exists.
const mysqlDupKeyName = 1061

// Setup opens a MySQL or PostgreSQL connection pool using the provided config.
// The returned DB is usable even when the initial ping fails; the ping error
// is returned alongside it and matches draw.ErrStorageUnavailable.
func Setup(cfg *config.Config) (*bun.DB, error) {
	sqldb, err := open(cfg)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(32)
	sqldb.SetMaxIdleConns(8)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	var db *bun.DB
	if cfg.Driver == config.DriverPostgres {
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		db = bun.NewDB(sqldb, mysqldialect.New())
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return db, ping(db, cfg.Driver)
}

// ping fails with a draw.ErrStorageUnavailable error whenever the server
// cannot be reached within pingTimeout.
func ping(db *bun.DB, driver string) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return draw.Unavailable(fmt.Errorf("ping %s: %w", driver, err))
	}
	return nil
}

func open(cfg *config.Config) (*sql.DB, error) {
	if cfg.Driver == config.DriverPostgres {
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN()))), nil
	}

	mc := cfg.MySQL()
	if cfg.DatabaseURL != "" {
		parsed, err := mysql.ParseDSN(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		mc = parsed
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

type index struct {
	name    string
	columns []string
}

var signIndexes = []index{
	{name: "idx_signs_level_drawn", columns: []string{"level", "is_drawn"}},
	{name: "idx_signs_drawn_id", columns: []string{"is_drawn", "id"}},
}

// CreateTables creates the pool and admin tables and the pool indexes.
// Existing tables and indexes are left untouched.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.Sign)(nil),
		(*models.User)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, Classify(err))
		}
	}

	for _, ix := range signIndexes {
		q := db.NewCreateIndex().
			Model((*models.Sign)(nil)).
			Index(ix.name).
			Column(ix.columns...)
		// MySQL has no CREATE INDEX IF NOT EXISTS; a duplicate is reported as 1061 instead.
		if db.Dialect().Name() != dialect.MySQL {
			q = q.IfNotExists()
		}
		if _, err := q.Exec(ctx); err != nil && !isDuplicateKeyName(err) {
			return fmt.Errorf("creating index %s: %w", ix.name, Classify(err))
		}
	}

	return nil
}

func isDuplicateKeyName(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupKeyName
}
