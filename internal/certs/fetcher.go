// Package certs retrieves the authority's CA certificate at configure time.
// The cert provider listens on plain HTTP one port above the authority
// endpoint and serves the PEM at /ca.crt.
package certs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Fetch downloads the CA certificate from host:port and verifies it looks
// like a PEM certificate before returning it.
func Fetch(ctx context.Context, host string, port int, timeout time.Duration) ([]byte, error) {
	url := fmt.Sprintf("http://%s/ca.crt", net.JoinHostPort(host, strconv.Itoa(port)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	hc := &http.Client{Timeout: timeout}
	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cert fetch failed (status=%d)", res.StatusCode)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if !looksLikePEM(data) {
		return nil, errors.New("response does not look like a PEM certificate")
	}
	return data, nil
}

// Save writes the certificate under dir as <profile>.crt and returns its path.
func Save(dir, profile string, pem []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	path := filepath.Join(dir, profile+".crt")
	if err := os.WriteFile(path, pem, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// Fingerprint returns the sha256 digest of the PEM bytes as colon-separated
// hex, for the operator to compare out of band.
func Fingerprint(pem []byte) string {
	sum := sha256.Sum256(pem)
	hex := fmt.Sprintf("%x", sum)
	parts := make([]string, 0, len(hex)/2)
	for i := 0; i < len(hex); i += 2 {
		parts = append(parts, hex[i:i+2])
	}
	return strings.Join(parts, ":")
}

func looksLikePEM(data []byte) bool {
	return bytes.Contains(data, []byte("BEGIN CERTIFICATE")) &&
		bytes.Contains(data, []byte("END CERTIFICATE"))
}
