// Package plantuml renders PlantUML source into images through a PlantUML
// server.
package plantuml

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Image formats the server can produce.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatTXT = "txt"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultServerURL = "https://www.plantuml.com/plantuml"
	DefaultTimeout   = 30 * time.Second
	DefaultRetries   = 2
	DefaultCacheSize = 128
)

// Config configures a Client.
type Config struct {
	ServerURL string
	Timeout   time.Duration
	RetryMax  int // negative disables retries
	CacheSize int
	Logger    *slog.Logger
}

// Result is the outcome of one Render call. Failures are reported through
// Success and Error rather than a Go error.
type Result struct {
	Success     bool
	Data        []byte
	ContentType string
	Error       string
	Cached      bool
}

// Client fetches rendered diagrams and caches successful results.
type Client struct {
	serverURL string
	http      *retryablehttp.Client
	cache     *lru.Cache[string, Result]
	logger    *slog.Logger
}

// NewClient creates a PlantUML server client
func NewClient(cfg Config) (*Client, error) {
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = DefaultRetries
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	cache, err := lru.New[string, Result](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = cfg.RetryMax
	hc.RetryWaitMin = 100 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	hc.HTTPClient.Timeout = cfg.Timeout
	hc.Logger = nil
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		serverURL: strings.TrimRight(cfg.ServerURL, "/"),
		http:      hc,
		cache:     cache,
		logger:    cfg.Logger,
	}, nil
}

// URL returns the server URL that renders source in format.
func (c *Client) URL(source, format string) (string, error) {
	encoded, err := Encode(source)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", c.serverURL, format, encoded), nil
}

// Render asks the server to render source as svg, png or txt.
func (c *Client) Render(ctx context.Context, source, format string) Result {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case FormatSVG, FormatPNG, FormatTXT:
	default:
		return Result{Error: fmt.Sprintf("unsupported image format %q", format)}
	}

	key := cacheKey(source, format)
	if res, ok := c.cache.Get(key); ok {
		res.Cached = true
		return res
	}

	url, err := c.URL(source, format)
	if err != nil {
		return Result{Error: err.Error()}
	}

	res := c.fetch(ctx, url)
	if res.Success {
		c.cache.Add(key, res)
	}
	return res
}

func (c *Client) fetch(ctx context.Context, url string) Result {
	start := time.Now()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to create request: %v", err)}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("plantuml server request failed", "error", err)
		return Result{Error: fmt.Sprintf("plantuml server request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to read plantuml response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("plantuml server returned an error", "status", resp.StatusCode)
		return Result{Error: fmt.Sprintf("plantuml server returned %s", resp.Status)}
	}

	c.logger.Debug("rendered plantuml diagram", "bytes", len(body), "duration", time.Since(start))
	return Result{
		Success:     true,
		Data:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}
}

// ClearCache drops every cached result.
func (c *Client) ClearCache() {
	c.cache.Purge()
}

// CacheLen reports how many results are cached.
func (c *Client) CacheLen() int {
	return c.cache.Len()
}

func cacheKey(source, format string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])[:16] + ":" + format
}
