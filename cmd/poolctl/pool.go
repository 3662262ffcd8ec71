package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/padraicbc/luckydraw/pool"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the tables and seed the pool from the tier catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tiers, err := opts.tiers()
			if err != nil {
				return err
			}
			bdb, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer bdb.Close()

			res, err := pool.Seed(cmd.Context(), bdb, tiers)
			if err != nil {
				return err
			}
			opts.logger.Info("seed finished",
				zap.Int("existing", res.Existing),
				zap.Bool("cleared", res.Cleared),
				zap.Int("inserted", res.Inserted))

			if res.Inserted == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "pool already holds %d signs, nothing to do\n", res.Existing)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d signs\n", res.Inserted)
			return nil
		},
	}
}

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	var fresh bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check row counts and tier composition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tiers, err := opts.tiers()
			if err != nil {
				return err
			}
			bdb, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer bdb.Close()

			st, err := pool.Collect(cmd.Context(), bdb)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), st, pool.Verify(st, tiers, fresh))
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "also require that nothing has been drawn")

	return cmd
}

func newResetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Mark every sign as undrawn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bdb, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer bdb.Close()

			n, err := pool.Reset(cmd.Context(), bdb)
			if err != nil {
				return err
			}
			opts.logger.Info("pool reset", zap.Int64("rows", n))
			fmt.Fprintf(cmd.OutOrStdout(), "reset %d signs\n", n)
			return nil
		},
	}
}

// report prints the stats and any problems. It returns an error when problems
// is non-empty so the command exits non-zero.
func report(w io.Writer, st pool.Stats, problems []string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return err
	}
	if len(problems) == 0 {
		fmt.Fprintln(w, "pool OK")
		return nil
	}
	for _, p := range problems {
		fmt.Fprintln(w, "FAIL:", p)
	}
	return fmt.Errorf("%d problem(s): %s", len(problems), strings.Join(problems, "; "))
}
