package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/rfsched/internal/config"
	"github.com/example/rfsched/internal/console"
)

func newReserveCmd() *cobra.Command {
	var (
		device int64
		start  string
		end    string
	)

	c := &cobra.Command{
		Use:   "reserve",
		Short: "Reserve an explicit device and time window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			startAt, err := console.ParseTimestamp(start)
			if err != nil {
				return err
			}
			endAt, err := console.ParseTimestamp(end)
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
			return cons.ReserveExplicit(ctx, device, startAt, endAt)
		},
	}

	c.Flags().Int64Var(&device, "device", 0, "device id")
	c.Flags().StringVar(&start, "start", "", "start time (YYYY-MM-DD HH:MM)")
	c.Flags().StringVar(&end, "end", "", "end time (YYYY-MM-DD HH:MM)")
	_ = c.MarkFlagRequired("device")
	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("end")
	return c
}

func newBookCmd() *cobra.Command {
	var (
		date      string
		startHour int
		endHour   int
	)

	c := &cobra.Command{
		Use:   "book",
		Short: "Reserve via aggregated free-slot search",
		Long:  "Show the free one-hour windows across all devices for a date and reserve the chosen one on the lowest-numbered free device.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			day, err := console.ParseDate(date)
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
			return cons.BookInteractive(ctx, day, startHour, endHour)
		},
	}

	c.Flags().StringVar(&date, "date", "", "reservation date (YYYY-MM-DD)")
	c.Flags().IntVar(&startHour, "start-hour", 0, "first hour to consider [0,24)")
	c.Flags().IntVar(&endHour, "end-hour", 24, "hour to stop at (exclusive, max 24)")
	_ = c.MarkFlagRequired("date")
	return c
}
