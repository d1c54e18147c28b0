package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/rfsched/internal/config"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the devices in the pool",
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
			return cons.ListDevices(ctx)
		},
	}
}
