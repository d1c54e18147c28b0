package rpc

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Config describes how to reach the authority.
type Config struct {
	// Addr is the authority endpoint in host:port form.
	Addr string
	// CACert optionally pins trust to one CA certificate file, fetched at
	// configure time. Empty means the system trust store.
	CACert string
	// Timeout bounds each call end to end.
	Timeout time.Duration
}

// Client speaks the authority's call protocol over HTTPS: one POST per call,
// one response, no persistent state. Each call is all-or-nothing; a timeout
// or transport failure means nothing was returned and nothing is retried.
type Client struct {
	hc      *http.Client
	baseURL string
	log     *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	var tlsCfg *tls.Config
	if cfg.CACert != "" {
		pem, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CACert)
		}
		tlsCfg = &tls.Config{RootCAs: pool}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		hc: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		},
		baseURL: "https://" + cfg.Addr + "/rpc",
		log:     log,
	}, nil
}

type callRequest struct {
	Fn   string            `json:"fn"`
	Args map[string]string `json:"args"`
}

type callResponse struct {
	Results map[string]string `json:"results"`
}

// Call issues one request to the authority and decodes the result map. The
// returned Response may still carry an authority-reported error under the
// reserved key; callers check that via Response.Err.
func (c *Client) Call(ctx context.Context, fn string, args map[string]string) (Response, error) {
	body, err := json.Marshal(callRequest{Fn: fn, Args: args})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrTransport, res.StatusCode)
	}

	var decoded callResponse
	if err := json.Unmarshal(b, &decoded); err != nil {
		return nil, fmt.Errorf("%w: undecodable response body: %v", ErrTransport, err)
	}
	if decoded.Results == nil {
		decoded.Results = map[string]string{}
	}
	c.log.Debug("authority call", zap.String("fn", fn), zap.Int("result_keys", len(decoded.Results)))
	return Response(decoded.Results), nil
}
