package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/fredpottier/relato/internal/cache"
	"github.com/fredpottier/relato/internal/model"
)

const maxDocumentBytes = 32 << 20

// Client fetches document exports from the index service. Requests are
// rate limited so batch runs do not hammer the service, and responses are
// cached: document exports are immutable for a given ingestion run.
type Client struct {
	cfg        model.SourceConfig
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Cache
}

// NewClient creates an HTTP provider from the source configuration.
func NewClient(cfg model.SourceConfig, c cache.Cache) *Client {
	if !cfg.CacheEnabled {
		c = nil
	}
	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cache:      c,
	}
}

// Document fetches one document export by id.
func (c *Client) Document(ctx context.Context, id string) (*model.Document, error) {
	key := cache.Key(c.baseURL + "/documents/" + id)
	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			return decodeDocument(data, id)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	url := fmt.Sprintf("%s/documents/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch document %s: unexpected status %d", id, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", id, err)
	}

	if c.cache != nil {
		_ = c.cache.Set(key, data, c.cfg.CacheTTL)
	}
	return decodeDocument(data, id)
}

func decodeDocument(data []byte, id string) (*model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", id, err)
	}
	if doc.ID == "" {
		doc.ID = id
	}
	return &doc, nil
}
