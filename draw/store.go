package draw

import (
	"context"

	"github.com/padraicbc/luckydraw/models"
)

// Store starts transactions against the pool table.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one isolated unit of work. Rows returned by LockedFetchAt stay
// exclusively locked until Commit or Rollback.
type Tx interface {
	// CountUndrawn returns the number of rows with is_drawn = false.
	CountUndrawn(ctx context.Context) (int, error)
	// LockedFetchAt returns the undrawn row at offset in ascending id order and
	// locks it. found is false when no row exists at that offset.
	LockedFetchAt(ctx context.Context, offset int) (sign models.Sign, found bool, err error)
	// ConditionalMarkDrawn sets is_drawn = true only if it is still false and
	// reports the number of rows changed.
	ConditionalMarkDrawn(ctx context.Context, id string) (int64, error)
	Commit() error
	Rollback() error
}
