package elasticsearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds connection settings for an Elasticsearch cluster.
type Config struct {
	// URL is the base address of the cluster, e.g. "http://127.0.0.1:9200".
	URL string

	// Username and Password enable HTTP Basic auth when Username is non-empty.
	Username string
	Password string

	// SkipTLSVerify disables TLS certificate verification (dev only).
	SkipTLSVerify bool

	// Timeout bounds every HTTP request. Zero means no timeout.
	Timeout time.Duration
}

// DefaultConfig returns a Config pointing at a local single-node cluster.
func DefaultConfig() *Config {
	return &Config{
		URL:     "http://127.0.0.1:9200",
		Timeout: 30 * time.Second,
	}
}

// Validate checks that the configuration can be used to build a client.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Client is a minimal Elasticsearch HTTP client.
// It covers index administration, bulk writes and search; analysis and
// ranking are left to the cluster.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewClient creates a new Elasticsearch client.
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var transport http.RoundTripper = http.DefaultTransport
	if config.SkipTLSVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = t
	}
	if config.Username != "" {
		transport = &basicAuthTransport{base: transport, username: config.Username, password: config.Password}
	}

	c := &Client{
		baseURL: strings.TrimSuffix(config.URL, "/"),
		http:    &http.Client{Transport: transport, Timeout: config.Timeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "elasticsearch")
	return c, nil
}

type basicAuthTransport struct {
	base     http.RoundTripper
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	auth := t.username + ":" + t.password
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	return t.base.RoundTrip(req)
}

// Ping checks that the cluster answers on its root endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/", nil, "")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %w", ErrUnreachable, readError(resp))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// IndexExists reports whether the index exists.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	resp, err := c.do(ctx, http.MethodHead, "/"+url.PathEscape(index), nil, "")
	if err != nil {
		return false, fmt.Errorf("check index: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, readError(resp)
	}
}

// CreateIndex creates an index with the given settings and mappings.
// Returns ErrIndexExists if the index is already present.
func (c *Client) CreateIndex(ctx context.Context, index string, definition map[string]any) error {
	if definition == nil {
		definition = map[string]any{}
	}
	body, err := json.Marshal(definition)
	if err != nil {
		return fmt.Errorf("marshal index definition: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, "/"+url.PathEscape(index), bytes.NewReader(body), "application/json")
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respErr := readError(resp)
		if respErr.Type == "resource_already_exists_exception" {
			return fmt.Errorf("%w: %s", ErrIndexExists, index)
		}
		return respErr
	}

	c.logger.Info("created index", "index", index)
	return nil
}

// EnsureIndex creates the index unless it already exists.
func (c *Client) EnsureIndex(ctx context.Context, index string, definition map[string]any) error {
	exists, err := c.IndexExists(ctx, index)
	if err != nil {
		return err
	}
	if exists {
		c.logger.Debug("index already exists", "index", index)
		return nil
	}
	return c.CreateIndex(ctx, index, definition)
}

// DeleteIndex removes an index. Missing indices are not an error.
func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/"+url.PathEscape(index), nil, "")
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 400 {
		return readError(resp)
	}
	return nil
}

// Refresh makes all operations performed on the index since the last
// refresh available for search.
func (c *Client) Refresh(ctx context.Context, index string) error {
	resp, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(index)+"/_refresh", nil, "")
	if err != nil {
		return fmt.Errorf("refresh index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return readError(resp)
	}
	return nil
}

// Search runs query against the index and returns up to size hits.
func (c *Client) Search(ctx context.Context, index string, query map[string]any, size int) (*SearchResponse, error) {
	body, err := json.Marshal(map[string]any{
		"size":  size,
		"query": query,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(index)+"/_search", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, readError(resp)
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.logger.Debug("request", "method", method, "path", path)
	return c.http.Do(req)
}

// SearchResponse represents an Elasticsearch search response.
type SearchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Score  float64         `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
