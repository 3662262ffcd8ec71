package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/padraicbc/luckydraw/draw"
	"github.com/padraicbc/luckydraw/models"
)

// SignStore runs draw transactions against the signs table.
type SignStore struct {
	db *bun.DB
}

// NewSignStore returns a draw.Store backed by db.
func NewSignStore(db *bun.DB) *SignStore {
	return &SignStore{db: db}
}

// Begin starts a transaction at the server's default isolation level.
func (s *SignStore) Begin(ctx context.Context) (draw.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Classify(err)
	}
	return &signTx{tx: tx}, nil
}

type signTx struct {
	tx bun.Tx
}

func (t *signTx) CountUndrawn(ctx context.Context) (int, error) {
	n, err := countUndrawnQuery(t.tx).Count(ctx)
	return n, Classify(err)
}

func (t *signTx) LockedFetchAt(ctx context.Context, offset int) (models.Sign, bool, error) {
	var sign models.Sign
	err := fetchAtQuery(t.tx, &sign, offset).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sign{}, false, nil
	}
	if err != nil {
		return models.Sign{}, false, Classify(err)
	}
	return sign, true, nil
}

func (t *signTx) ConditionalMarkDrawn(ctx context.Context, id string) (int64, error) {
	res, err := markDrawnQuery(t.tx, id).Exec(ctx)
	if err != nil {
		return 0, Classify(err)
	}
	n, err := res.RowsAffected()
	return n, Classify(err)
}

func (t *signTx) Commit() error {
	return Classify(t.tx.Commit())
}

func (t *signTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return Classify(err)
	}
	return nil
}

func countUndrawnQuery(idb bun.IDB) *bun.SelectQuery {
	return idb.NewSelect().
		Model((*models.Sign)(nil)).
		Where("is_drawn = ?", false)
}

func fetchAtQuery(idb bun.IDB, sign *models.Sign, offset int) *bun.SelectQuery {
	return idb.NewSelect().
		Model(sign).
		Where("is_drawn = ?", false).
		OrderExpr("id ASC").
		Limit(1).
		Offset(offset).
		For("UPDATE")
}

func markDrawnQuery(idb bun.IDB, id string) *bun.UpdateQuery {
	return idb.NewUpdate().
		Model((*models.Sign)(nil)).
		Set("is_drawn = ?", true).
		Where("id = ?", id).
		Where("is_drawn = ?", false)
}
