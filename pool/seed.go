package pool

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/padraicbc/luckydraw/models"
)

const batchSize = 500

// SeedResult describes what Seed did.
type SeedResult struct {
	Existing int
	Cleared  bool
	Inserted int
}

// Seed fills the signs table from tiers. A table that already holds exactly
// tiers.Total() rows is left alone; any other non-empty table is emptied in
// the same transaction as the insert, so a failed seed leaves it untouched.
func Seed(ctx context.Context, db *bun.DB, tiers Tiers) (SeedResult, error) {
	if err := tiers.Validate(); err != nil {
		return SeedResult{}, err
	}

	var res SeedResult
	existing, err := db.NewSelect().Model((*models.Sign)(nil)).Count(ctx)
	if err != nil {
		return res, fmt.Errorf("count signs: %w", err)
	}
	res.Existing = existing
	if existing == tiers.Total() {
		return res, nil
	}

	rows := Generate(tiers)
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if existing > 0 {
			if _, err := tx.NewDelete().Model((*models.Sign)(nil)).Where("1 = 1").Exec(ctx); err != nil {
				return fmt.Errorf("clear signs: %w", err)
			}
		}
		for start := 0; start < len(rows); start += batchSize {
			end := min(start+batchSize, len(rows))
			if err := bulkInsert(ctx, tx, rows[start:end]); err != nil {
				return fmt.Errorf("insert signs %d-%d: %w", start, end, err)
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	res.Cleared = existing > 0
	res.Inserted = len(rows)
	return res, nil
}

func bulkInsert[T any](ctx context.Context, idb bun.IDB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := idb.NewInsert().Model(&rows).Exec(ctx)
	return err
}

// Reset marks every drawn sign undrawn again and returns how many changed.
// It must only run while no draws are in flight.
func Reset(ctx context.Context, idb bun.IDB) (int64, error) {
	res, err := idb.NewUpdate().
		Model((*models.Sign)(nil)).
		Set("is_drawn = ?", false).
		Where("is_drawn = ?", true).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset signs: %w", err)
	}
	return res.RowsAffected()
}
