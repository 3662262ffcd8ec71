package handlers

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/padraicbc/luckydraw/draw"
	"github.com/padraicbc/luckydraw/pool"
)

// Drawer performs a single draw. *draw.Engine satisfies it.
type Drawer interface {
	PerformDraw(ctx context.Context) (draw.Result, error)
}

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db       *bun.DB
	drawer   Drawer
	tiers    pool.Tiers
	logDraws bool

	JWTKey  []byte
	IsAdmin func(username string) bool
}

// New creates a Handler. db may be nil when only the draw routes are served.
func New(db *bun.DB, drawer Drawer, tiers pool.Tiers, logDraws bool) *Handler {
	return &Handler{
		db:       db,
		drawer:   drawer,
		tiers:    tiers,
		logDraws: logDraws,
		IsAdmin:  func(string) bool { return false },
	}
}
