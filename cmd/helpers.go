package cmd

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/example/rfsched/internal/authority"
	"github.com/example/rfsched/internal/config"
	"github.com/example/rfsched/internal/console"
	"github.com/example/rfsched/internal/credentials"
	"github.com/example/rfsched/internal/rpc"
)

func newLogger() (*zap.Logger, error) {
	if os.Getenv("RFSCHED_DEBUG") == "1" {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	// Keep user-facing output clean; diagnostics only on warnings and up.
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func newAuthorityClient(cfg config.Config, log *zap.Logger) (*authority.Client, error) {
	if err := cfg.RequireAddr(); err != nil {
		return nil, err
	}
	caller, err := rpc.New(rpc.Config{Addr: cfg.Addr, CACert: cfg.CACert, Timeout: cfg.Timeout}, log)
	if err != nil {
		return nil, err
	}
	return authority.New(caller, log), nil
}

// newConsole wires a console over the configured authority channel.
func newConsole(cfg config.Config, log *zap.Logger) (*console.Console, error) {
	auth, err := newAuthorityClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return console.New(auth, cfg.MaxFetchWorkers, log), nil
}

// resolveAccount installs credentials on the console: environment first, then
// the sealed cache, then an interactive login.
func resolveAccount(ctx context.Context, cfg config.Config, cons *console.Console) error {
	if cfg.Username != "" && cfg.Password != "" {
		return cons.LoginAs(ctx, authority.Account{Username: cfg.Username, Password: cfg.Password})
	}
	if len(cfg.CredKey) > 0 {
		if acct, ok := loadCachedAccount(cfg); ok {
			if err := cons.LoginAs(ctx, acct); err == nil {
				return nil
			}
			// Stale cache; fall through to the prompt.
		}
	}
	return cons.Authenticate(ctx)
}

func loadCachedAccount(cfg config.Config) (authority.Account, bool) {
	path, err := config.CredentialsPath()
	if err != nil {
		return authority.Account{}, false
	}
	vault, err := credentials.NewVault(cfg.CredKey)
	if err != nil {
		return authority.Account{}, false
	}
	acct, err := vault.Load(path)
	if err != nil {
		return authority.Account{}, false
	}
	return acct, true
}
