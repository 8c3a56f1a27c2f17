package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"
)

var schemeRe = regexp.MustCompile(`^https?://`)

// Config holds HTTP client configuration.
type Config struct {
	ProxyPrefix string
	Timeout     time.Duration
	UserAgent   string
}

// Client fetches JSON documents, walking an ordered list of candidate
// URLs until one succeeds. The usual candidate list is the direct URL
// followed by its CORS-proxy twin.
type Client struct {
	httpClient  *http.Client
	proxyPrefix string
	userAgent   string
	logger      *slog.Logger
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		proxyPrefix: cfg.ProxyPrefix,
		userAgent:   cfg.UserAgent,
		logger:      logger.With("component", "fetch"),
	}
}

// Candidates returns the fallback chain for url: the URL itself, then
// its proxied form. The proxy is best effort only.
func (c *Client) Candidates(url string) []string {
	return []string{url, c.Proxied(url)}
}

// Proxied routes url through the configured CORS relay: the scheme is
// stripped and the prefix, which already addresses https://, prepended.
func (c *Client) Proxied(url string) string {
	return c.proxyPrefix + schemeRe.ReplaceAllString(url, "")
}

// GetJSON attempts each candidate URL in order and decodes the first
// successfully fetched body into v. A candidate fails on a non-2xx
// status or a body that does not parse; each failure is logged as a
// warning. When every candidate fails, the last error is returned.
func (c *Client) GetJSON(ctx context.Context, urls []string, v any) error {
	var lastErr error

	for _, url := range urls {
		if err := c.getJSON(ctx, url, v); err != nil {
			lastErr = err
			c.logger.Warn("fetch attempt failed", "url", url, "error", err)
			continue
		}
		return nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate urls")
	}
	return fmt.Errorf("all %d candidates failed: %w", len(urls), lastErr)
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// Proxies occasionally mislabel the content type, so decode the
	// body regardless and let the parse decide.
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
