package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/padraicbc/luckydraw/config"
	"github.com/padraicbc/luckydraw/db"
	applog "github.com/padraicbc/luckydraw/logger"
	"github.com/padraicbc/luckydraw/pool"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	TiersFile string
	Verbose   bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "poolctl",
		Short:         "Manage the sign pool",
		Long:          "Seed, verify, reset and draw from the sign pool using the server's database settings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.cfg = config.Load()
			if opts.TiersFile == "" {
				opts.TiersFile = opts.cfg.TiersFile
			}
			logger, err := applog.New(opts.Verbose || opts.cfg.Debug, opts.cfg.LogLevel)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.TiersFile, "tiers", "", "tier catalog YAML (defaults to TIERS_FILE or the built-in catalog)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newVerifyCommand(opts))
	cmd.AddCommand(newResetCommand(opts))
	cmd.AddCommand(newDrawCommand(opts))

	return cmd
}

// open connects and makes sure the tables exist.
func (o *rootOptions) open(ctx context.Context) (*bun.DB, error) {
	bdb, err := db.Setup(o.cfg)
	if err != nil {
		if bdb != nil {
			_ = bdb.Close()
		}
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := db.CreateTables(ctx, bdb); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return bdb, nil
}

func (o *rootOptions) tiers() (pool.Tiers, error) {
	return pool.LoadTiers(o.TiersFile)
}
