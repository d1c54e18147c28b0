package cmd

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/rfsched/internal/config"
	"github.com/example/rfsched/internal/credentials"
)

func newLoginCmd() *cobra.Command {
	var save bool

	c := &cobra.Command{
		Use:   "login",
		Short: "Verify credentials against the authority",
		Long:  "Verify credentials against the authority. With --save, seal them into the local credentials cache so later commands skip the prompt.",
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
			fmt.Fprintf(os.Stdout, "logged in as %q\n", cons.Account().Username)

			if !save {
				return nil
			}

			key := cfg.CredKey
			if len(key) == 0 {
				key, err = credentials.GenerateKey()
				if err != nil {
					return err
				}
				if err := config.UpdateProfile(map[string]string{
					"RFSCHED_CRED_KEY": base64.StdEncoding.EncodeToString(key),
				}); err != nil {
					return err
				}
			}
			vault, err := credentials.NewVault(key)
			if err != nil {
				return err
			}
			path, err := config.CredentialsPath()
			if err != nil {
				return err
			}
			if err := vault.Store(path, cons.Account()); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "credentials sealed into %s\n", path)
			return nil
		},
	}

	c.Flags().BoolVar(&save, "save", false, "seal credentials into the local cache")
	return c
}
