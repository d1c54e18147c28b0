package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/rfsched/internal/certs"
	"github.com/example/rfsched/internal/config"
)

// The cert provider listens one port above the authority endpoint.
const certPortOffset = 1

func newConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure <host:port>",
		Short: "Fetch the authority CA certificate and save the endpoint profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, port, err := parseHostPort(args[0])
			if err != nil {
				return fmt.Errorf("invalid addr %q: %w", args[0], err)
			}
			certPort := port + certPortOffset
			if certPort > 65535 {
				return fmt.Errorf("invalid addr %q: no room for the cert port", args[0])
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			pem, err := certs.Fetch(ctx, host, certPort, 3*time.Second)
			if err != nil {
				return fmt.Errorf("fetch CA cert from %s:%d: %w", host, certPort, err)
			}

			certsDir, err := config.CertsDir()
			if err != nil {
				return err
			}
			profile := "default"
			certPath, err := certs.Save(certsDir, profile, pem)
			if err != nil {
				return err
			}

			addr := net.JoinHostPort(host, strconv.Itoa(port))
			if err := config.UpdateProfile(map[string]string{
				"RFSCHED_ADDR":    addr,
				"RFSCHED_CA_CERT": certPath,
				"RFSCHED_PROFILE": profile,
			}); err != nil {
				return err
			}

			envPath, _ := config.EnvPath()
			fmt.Fprintln(os.Stdout, "rfsched configured successfully.")
			fmt.Fprintf(os.Stdout, "  authority   : %s\n", addr)
			fmt.Fprintf(os.Stdout, "  cert port   : %s:%d\n", host, certPort)
			fmt.Fprintf(os.Stdout, "  CA cert     : %s\n", certPath)
			fmt.Fprintf(os.Stdout, "  fingerprint : %s\n", certs.Fingerprint(pem))
			fmt.Fprintf(os.Stdout, "  profile     : %s\n", envPath)
			return nil
		},
	}
}

func parseHostPort(s string) (string, int, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, fmt.Errorf("expected host:port")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("port out of range")
	}
	if host == "" {
		return "", 0, fmt.Errorf("host is empty")
	}
	return host, port, nil
}
