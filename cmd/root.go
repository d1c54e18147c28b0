package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rfsched",
		Short: "Terminal client for reserving time windows on a shared pool of remote RF devices",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newConfigureCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newDevicesCmd())
	root.AddCommand(newReservationsCmd())
	root.AddCommand(newReserveCmd())
	root.AddCommand(newBookCmd())
	root.AddCommand(newCancelCmd())
	root.AddCommand(newConsoleCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
