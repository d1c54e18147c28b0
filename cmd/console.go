package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/rfsched/internal/config"
)

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Start the interactive reservation console",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			cons, err := newConsole(cfg, log)
			if err != nil {
				return err
			}
			ctx := context.Background()
			// Try non-interactive credentials first so a cached login lands
			// straight in the command loop.
			if cfg.Username != "" || len(cfg.CredKey) > 0 {
				_ = resolveAccount(ctx, cfg, cons)
			}
			return cons.Run(ctx)
		},
	}
}
