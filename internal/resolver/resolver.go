// Package resolver looks up the host's public address from an IP echo service.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ipsend/internal/types"
	"ipsend/internal/version"
)

const (
	// DefaultURL is the ipify JSON endpoint
	DefaultURL = "https://api.ipify.org?format=json"

	// DefaultTimeout bounds a single lookup
	DefaultTimeout = 10 * time.Second

	maxBodySize = 4 << 10
)

// Resolver queries a single echo endpoint that answers {"ip": "..."}
type Resolver struct {
	url    string
	client *http.Client
}

// response is the echo service body
type response struct {
	IP string `json:"ip"`
}

// New creates a resolver for url. Zero values fall back to DefaultURL and
// DefaultTimeout.
func New(url string, timeout time.Duration) *Resolver {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Resolver{
		url: url,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        2,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: timeout,
			},
		},
	}
}

// Resolve returns the current public address. Every failure wraps
// types.ErrResolution; nothing is retried or logged here.
func (r *Resolver) Resolve(ctx context.Context) (types.Address, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", types.ErrResolution, err)
	}

	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed: %v", types.ErrResolution, err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: provider returned status %d", types.ErrResolution, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", types.ErrResolution, err)
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", types.ErrResolution, err)
	}

	addr := types.Address(strings.TrimSpace(out.IP))
	if addr.IsEmpty() {
		return "", fmt.Errorf("%w: response has no ip field", types.ErrResolution)
	}

	return addr, nil
}
