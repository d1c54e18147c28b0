package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const appDirName = "rfsched"

// Config holds the client's runtime configuration. Values come from the
// environment, backed by the dotenv profile written by `rfsched configure`;
// real environment variables win over the profile.
type Config struct {
	Addr    string // authority endpoint, host:port
	CACert  string // path to the pinned CA certificate, optional
	Profile string

	Timeout         time.Duration // per-call network timeout
	MaxFetchWorkers int           // aggregation worker pool cap

	// Optional non-interactive credentials.
	Username string
	Password string

	// CredKey unseals the local credentials cache when present.
	CredKey []byte
}

// Dir returns the profile directory (~/.config/rfsched).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// EnvPath returns the dotenv profile location.
func EnvPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// CertsDir returns where fetched CA certificates live.
func CertsDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "certs"), nil
}

// CredentialsPath returns the sealed credentials cache location.
func CredentialsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials"), nil
}

// FromEnv loads the dotenv profile if present, then reads configuration from
// the environment.
func FromEnv() (Config, error) {
	if path, err := EnvPath(); err == nil {
		// Absent profile is fine; `rfsched configure` writes it.
		_ = godotenv.Load(path)
	}

	cfg := Config{
		Addr:     os.Getenv("RFSCHED_ADDR"),
		CACert:   os.Getenv("RFSCHED_CA_CERT"),
		Profile:  getenv("RFSCHED_PROFILE", "default"),
		Username: os.Getenv("RFSCHED_USER"),
		Password: os.Getenv("RFSCHED_PASSWORD"),
	}

	timeoutSec, err := strconv.Atoi(getenv("RFSCHED_TIMEOUT_SECONDS", "5"))
	if err != nil || timeoutSec < 1 {
		return Config{}, fmt.Errorf("invalid RFSCHED_TIMEOUT_SECONDS")
	}
	cfg.Timeout = time.Duration(timeoutSec) * time.Second

	workers, err := strconv.Atoi(getenv("RFSCHED_MAX_FETCH_WORKERS", "8"))
	if err != nil || workers < 1 {
		return Config{}, fmt.Errorf("invalid RFSCHED_MAX_FETCH_WORKERS")
	}
	cfg.MaxFetchWorkers = workers

	if v := os.Getenv("RFSCHED_CRED_KEY"); v != "" {
		key, derr := decodeB64(v)
		if derr != nil {
			return Config{}, fmt.Errorf("RFSCHED_CRED_KEY: %w", derr)
		}
		if len(key) != 32 {
			return Config{}, fmt.Errorf("RFSCHED_CRED_KEY must decode to 32 bytes (got %d)", len(key))
		}
		cfg.CredKey = key
	}

	return cfg, nil
}

// RequireAddr guards commands that talk to the authority.
func (c Config) RequireAddr() error {
	if c.Addr == "" {
		return fmt.Errorf("RFSCHED_ADDR is not set; run 'rfsched configure <host:port>' first")
	}
	return nil
}

// UpdateProfile merges kv into the dotenv profile, creating it if needed.
// Unrelated keys are preserved.
func UpdateProfile(kv map[string]string) error {
	path, err := EnvPath()
	if err != nil {
		return err
	}
	merged, err := godotenv.Read(path)
	if err != nil {
		merged = map[string]string{}
	}
	for k, v := range kv {
		merged[k] = v
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return godotenv.Write(merged, path)
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func decodeB64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
