// Package assetcache keeps a versioned, cache-first copy of the static
// app shell so it stays servable when the asset origin is unreachable.
// Its lifecycle mirrors a service worker: install pre-populates the
// current version's bucket, activate evicts every other bucket, and
// request serving prefers the cache with a network fallback.
package assetcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// shellKey is the navigation fallback document.
const shellKey = "index.html"

// Config holds asset cache configuration.
type Config struct {
	Version  string
	Dir      string
	Origin   string
	Manifest []string
	Timeout  time.Duration
}

// Cache serves same-origin static assets cache-first from a versioned
// on-disk bucket.
type Cache struct {
	dir      string
	version  string
	origin   *url.URL
	manifest []string
	client   *http.Client
	logger   *slog.Logger
}

// New creates a Cache rooted at cfg.Dir with one bucket per version.
func New(cfg Config, logger *slog.Logger) (*Cache, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}

	return &Cache{
		dir:      cfg.Dir,
		version:  cfg.Version,
		origin:   origin,
		manifest: cfg.Manifest,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger.With("component", "assetcache"),
	}, nil
}

// Install pre-populates the current bucket with every manifest asset.
// A single unfetchable asset fails the whole installation.
func (c *Cache) Install(ctx context.Context) error {
	if err := os.MkdirAll(c.bucket(), 0o755); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}

	for _, assetPath := range c.manifest {
		data, err := c.fetchOrigin(ctx, assetPath)
		if err != nil {
			return fmt.Errorf("precache %s: %w", assetPath, err)
		}
		if err := c.store(assetPath, data); err != nil {
			return fmt.Errorf("precache %s: %w", assetPath, err)
		}
	}

	c.logger.Info("asset cache installed", "version", c.version, "assets", len(c.manifest))
	return nil
}

// Activate deletes every bucket whose name is not the current version,
// evicting assets from prior deploys.
func (c *Cache) Activate() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("list buckets: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == c.version {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.dir, entry.Name())); err != nil {
			return fmt.Errorf("evict bucket %s: %w", entry.Name(), err)
		}
		c.logger.Info("evicted stale asset bucket", "bucket", entry.Name())
	}
	return nil
}

// ServeHTTP serves GET requests cache-first: a hit is returned
// immediately; a miss is fetched from the origin and opportunistically
// stored. When the origin is unreachable, navigation requests fall back
// to the cached shell, others to any cached copy. Non-GET requests pass
// through uncached.
func (c *Cache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		c.passThrough(w, r)
		return
	}

	assetKey := key(r.URL.Path)

	if data, err := c.lookup(c.bucket(), assetKey); err == nil {
		c.serve(w, assetKey, data)
		return
	}

	data, err := c.fetchOrigin(r.Context(), r.URL.Path)
	if err == nil {
		if storeErr := c.store(r.URL.Path, data); storeErr != nil {
			c.logger.Warn("could not store asset", "path", r.URL.Path, "error", storeErr)
		}
		c.serve(w, assetKey, data)
		return
	}

	c.logger.Warn("origin unreachable", "path", r.URL.Path, "error", err)

	if isNavigation(r) {
		if shell, shellErr := c.anyBucketLookup(shellKey); shellErr == nil {
			c.serve(w, shellKey, shell)
			return
		}
	} else if data, lookupErr := c.anyBucketLookup(assetKey); lookupErr == nil {
		c.serve(w, assetKey, data)
		return
	}

	http.Error(w, "asset unavailable", http.StatusBadGateway)
}

func (c *Cache) bucket() string {
	return filepath.Join(c.dir, c.version)
}

func (c *Cache) lookup(bucket, assetKey string) ([]byte, error) {
	return os.ReadFile(filepath.Join(bucket, assetKey))
}

// anyBucketLookup searches every version bucket, newest install last
// resort included, matching the match-anywhere cache fallback.
func (c *Cache) anyBucketLookup(assetKey string) ([]byte, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if data, err := c.lookup(filepath.Join(c.dir, entry.Name()), assetKey); err == nil {
			return data, nil
		}
	}
	return nil, os.ErrNotExist
}

func (c *Cache) store(assetPath string, data []byte) error {
	if err := os.MkdirAll(c.bucket(), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.bucket(), key(assetPath)), data, 0o644)
}

func (c *Cache) fetchOrigin(ctx context.Context, assetPath string) ([]byte, error) {
	target := c.origin.JoinPath(assetPath).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (c *Cache) serve(w http.ResponseWriter, assetKey string, data []byte) {
	contentType := mime.TypeByExtension(path.Ext(assetKey))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// passThrough forwards a request to the origin without touching the
// cache.
func (c *Cache) passThrough(w http.ResponseWriter, r *http.Request) {
	target := c.origin.JoinPath(r.URL.Path).String()

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	req.Header = r.Header.Clone()

	resp, err := c.client.Do(req)
	if err != nil {
		http.Error(w, "origin unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// key flattens an asset path into a bucket file name. "/" maps to the
// shell document; PathEscape keeps the name free of separators.
func key(assetPath string) string {
	cleaned := strings.TrimPrefix(path.Clean("/"+assetPath), "/")
	if cleaned == "" || cleaned == "." {
		return shellKey
	}
	return url.PathEscape(cleaned)
}

func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
