// Package credentials seals the optional "remember me" cache. Only account
// credentials are ever cached; reservation state never touches disk.
package credentials

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/example/rfsched/internal/authority"
)

// Vault seals and opens the credentials cache with an AEAD keyed from the
// profile's RFSCHED_CRED_KEY.
type Vault struct {
	key []byte
}

// NewVault builds a vault over a 32-byte key.
func NewVault(key []byte) (*Vault, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("vault key must be %d bytes (got %d)", chacha20poly1305.KeySize, len(key))
	}
	return &Vault{key: append([]byte(nil), key...)}, nil
}

// GenerateKey returns a fresh random vault key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Store seals the account into path.
func (v *Vault) Store(path string, acct authority.Account) error {
	sealed, err := v.seal([]byte(acct.Username + "\n" + acct.Password))
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(sealed), 0o600)
}

// Load opens the cache at path back into an account.
func (v *Vault) Load(path string) (authority.Account, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return authority.Account{}, err
	}
	plain, err := v.open(strings.TrimSpace(string(b)))
	if err != nil {
		return authority.Account{}, err
	}
	parts := strings.SplitN(string(plain), "\n", 2)
	if len(parts) != 2 || parts[0] == "" {
		return authority.Account{}, errors.New("credentials cache is corrupt")
	}
	return authority.Account{Username: parts[0], Password: parts[1]}, nil
}

func (v *Vault) seal(plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ct := aead.Seal(nil, nonce, plaintext, nil)
	return base64.RawStdEncoding.EncodeToString(append(nonce, ct...)), nil
}

func (v *Vault) open(sealedB64 string) ([]byte, error) {
	buf, err := base64.RawStdEncoding.DecodeString(sealedB64)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return nil, err
	}
	ns := aead.NonceSize()
	if len(buf) < ns {
		return nil, errors.New("sealed credentials too short")
	}
	return aead.Open(nil, buf[:ns], buf[ns:], nil)
}
