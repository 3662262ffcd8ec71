package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/padraicbc/luckydraw/db"
	"github.com/padraicbc/luckydraw/draw"
	"github.com/padraicbc/luckydraw/pool"
)

type drawer interface {
	PerformDraw(ctx context.Context) (draw.Result, error)
}

// drawSummary is what a run of draws produced.
type drawSummary struct {
	OK         int
	OutOfStock bool
	Duplicates []string
}

func newDrawCommand(opts *rootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw from the pool through the engine and check the results",
		Long: `Draw from the pool through the engine, printing one JSON line per draw.

With -n 0 it draws until OUT_OF_STOCK and then verifies that every sign is
drawn exactly once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return fmt.Errorf("-n must be >= 0, got %d", count)
			}
			bdb, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer bdb.Close()

			engine := draw.New(db.NewSignStore(bdb), draw.WithLogger(opts.logger.Named("draw")))
			sum, err := runDraws(cmd.Context(), engine, count, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			opts.logger.Info("draws finished",
				zap.Int("ok", sum.OK),
				zap.Bool("out_of_stock", sum.OutOfStock))
			if len(sum.Duplicates) > 0 {
				return fmt.Errorf("duplicate sign ids: %v", sum.Duplicates)
			}
			if !sum.OutOfStock {
				return nil
			}

			st, err := pool.Collect(cmd.Context(), bdb)
			if err != nil {
				return err
			}
			var problems []string
			if st.Undrawn != 0 || st.Drawn != st.Total {
				problems = append(problems, fmt.Sprintf("after depletion drawn=%d undrawn=%d, expected drawn=%d undrawn=0", st.Drawn, st.Undrawn, st.Total))
			}
			return report(cmd.OutOrStdout(), st, problems)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of draws, 0 to draw until out of stock")

	return cmd
}

// runDraws performs up to n draws (unbounded when n is 0) and stops early on
// OUT_OF_STOCK. Each result is written to w as a JSON line.
func runDraws(ctx context.Context, d drawer, n int, w io.Writer) (drawSummary, error) {
	var sum drawSummary
	seen := make(map[string]bool)
	enc := json.NewEncoder(w)

	for i := 0; n == 0 || i < n; i++ {
		res, err := d.PerformDraw(ctx)
		if err != nil {
			return sum, fmt.Errorf("draw %d: %w", i+1, err)
		}
		if err := enc.Encode(res); err != nil {
			return sum, err
		}
		if !res.OK() {
			sum.OutOfStock = true
			return sum, nil
		}
		sum.OK++
		if seen[res.Sign.ID] {
			sum.Duplicates = append(sum.Duplicates, res.Sign.ID)
		}
		seen[res.Sign.ID] = true
	}
	return sum, nil
}
