package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/rfsched/internal/config"
)

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel one of the account's reservations",
		Long:  "List the account's reservations with session-local ids and cancel the chosen one. Ids are assigned per listing and are not stable across runs.",
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
			if err := resolveAccount(ctx, cfg, cons); err != nil {
				return err
			}
			return cons.CancelInteractive(ctx)
		},
	}
}
