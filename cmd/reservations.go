package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/rfsched/internal/config"
)

func newReservationsCmd() *cobra.Command {
	var mine bool

	c := &cobra.Command{
		Use:   "reservations",
		Short: "List reservations visible to the account",
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
			return cons.ListReservations(ctx, mine)
		},
	}

	c.Flags().BoolVar(&mine, "mine", false, "only show the account's own reservations")
	return c
}
