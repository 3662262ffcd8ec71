package pool

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/padraicbc/luckydraw/models"
)

// LevelCount is the per-level breakdown of the pool.
type LevelCount struct {
	Level      int    `bun:"level" json:"level"`
	Type       string `bun:"type" json:"type"`
	RewardCode string `bun:"reward_code" json:"reward_code"`
	Total      int    `bun:"total" json:"total"`
	Drawn      int    `bun:"drawn" json:"drawn"`
}

// Stats is a snapshot of the signs table.
type Stats struct {
	Total       int          `json:"total"`
	Undrawn     int          `json:"undrawn"`
	Drawn       int          `json:"drawn"`
	DistinctIDs int          `json:"distinct_ids"`
	Levels      []LevelCount `json:"levels"`
}

// Collect reads Stats from the database. The counts come from separate
// statements, so run it while the pool is quiet for an exact picture.
func Collect(ctx context.Context, idb bun.IDB) (Stats, error) {
	var st Stats
	var err error

	if st.Total, err = idb.NewSelect().Model((*models.Sign)(nil)).Count(ctx); err != nil {
		return st, fmt.Errorf("count signs: %w", err)
	}
	if st.Undrawn, err = idb.NewSelect().Model((*models.Sign)(nil)).Where("is_drawn = ?", false).Count(ctx); err != nil {
		return st, fmt.Errorf("count undrawn: %w", err)
	}
	if st.Drawn, err = idb.NewSelect().Model((*models.Sign)(nil)).Where("is_drawn = ?", true).Count(ctx); err != nil {
		return st, fmt.Errorf("count drawn: %w", err)
	}

	err = idb.NewSelect().
		TableExpr("signs").
		ColumnExpr("COUNT(DISTINCT id)").
		Scan(ctx, &st.DistinctIDs)
	if err != nil {
		return st, fmt.Errorf("count distinct ids: %w", err)
	}

	err = idb.NewSelect().
		TableExpr("signs").
		ColumnExpr("level, type, reward_code").
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("COUNT(CASE WHEN is_drawn THEN 1 END) AS drawn").
		GroupExpr("level, type, reward_code").
		OrderExpr("level ASC").
		Scan(ctx, &st.Levels)
	if err != nil {
		return st, fmt.Errorf("count levels: %w", err)
	}
	return st, nil
}

// Verify compares a snapshot with the catalog it was seeded from and returns
// every problem found. fresh additionally requires that nothing is drawn.
func Verify(st Stats, tiers Tiers, fresh bool) []string {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	want := tiers.Total()
	if st.Total != want {
		fail("total rows %d, expected %d", st.Total, want)
	}
	if st.DistinctIDs != st.Total {
		fail("distinct ids %d, expected %d", st.DistinctIDs, st.Total)
	}
	if st.Undrawn+st.Drawn != st.Total {
		fail("undrawn %d + drawn %d != total %d", st.Undrawn, st.Drawn, st.Total)
	}
	if fresh && st.Undrawn != st.Total {
		fail("undrawn %d, expected all %d undrawn", st.Undrawn, st.Total)
	}

	found := make(map[int]bool, len(st.Levels))
	for _, lc := range st.Levels {
		if found[lc.Level] {
			fail("level %d appears with more than one type or reward code", lc.Level)
			continue
		}
		found[lc.Level] = true

		tier, ok := tiers.ByLevel(lc.Level)
		if !ok {
			fail("level %d is not in the tier catalog", lc.Level)
			continue
		}
		if lc.Type != tier.Type || lc.RewardCode != tier.RewardCode {
			fail("level %d is %s/%s, expected %s/%s", lc.Level, lc.Type, lc.RewardCode, tier.Type, tier.RewardCode)
		}
		if lc.Total != tier.Count {
			fail("level %d has %d rows, expected %d", lc.Level, lc.Total, tier.Count)
		}
	}
	for _, tier := range tiers {
		if tier.Count > 0 && !found[tier.Level] {
			fail("level %d (%s) is missing", tier.Level, tier.Type)
		}
	}
	return problems
}
