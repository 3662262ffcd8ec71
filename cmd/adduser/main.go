// cmd/adduser/main.go
// Creates or updates an admin user in the database.
//
// Usage:
//
//	go run ./cmd/adduser -username padraic -password testing
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/padraicbc/luckydraw/config"
	bundb "github.com/padraicbc/luckydraw/db"
	"github.com/padraicbc/luckydraw/handlers"
	"github.com/padraicbc/luckydraw/models"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	flag.Parse()

	hash, err := handlers.HashPasswordForUser(*username, *password)
	if err != nil {
		log.Fatal("adduser: ", err)
	}

	cfg := config.Load()
	db, err := bundb.Setup(cfg)
	if err != nil {
		log.Fatal("connect: ", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatal("create tables: ", err)
	}

	user := &models.User{
		Username: *username,
		Password: hash,
	}
	if _, err := upsertUser(db, user).Exec(ctx); err != nil {
		log.Fatal("insert user: ", err)
	}

	if !cfg.IsAdmin(*username) {
		log.Printf("note: %q is not listed in ADMIN_USERS and cannot use admin routes", *username)
	}
	fmt.Printf("user %q saved\n", *username)
}

// upsertUser replaces the password of an existing username.
func upsertUser(db *bun.DB, user *models.User) *bun.InsertQuery {
	q := db.NewInsert().Model(user)
	if db.Dialect().Name() == dialect.MySQL {
		return q.On("DUPLICATE KEY UPDATE").Set("password = VALUES(password)")
	}
	return q.On("CONFLICT (username) DO UPDATE").Set("password = EXCLUDED.password")
}
