package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mcp-tool-server/internal/domain"
)

// DefaultMaxFetchBytes bounds a fetched body when the caller gives no limit.
const DefaultMaxFetchBytes = 1 << 20

// maxErrorBodyBytes bounds the body excerpt kept in an HTTPError.
const maxErrorBodyBytes = 512

// FetchClient retrieves http and https documents for the fetch_url tool.
type FetchClient struct {
	httpClient *http.Client
	userAgent  string
}

// NewFetchClient creates a FetchClient. A nil httpClient gets a client with a 20s timeout.
func NewFetchClient(httpClient *http.Client, userAgent string) *FetchClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &FetchClient{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Fetch issues a GET for rawURL and returns at most maxBytes of the body.
// Non-2xx responses are returned as domain.HTTPError.
func (c *FetchClient) Fetch(ctx context.Context, rawURL string, maxBytes int64) (*domain.FetchResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("url must use http or https scheme")
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("url must include a host")
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxFetchBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, domain.NewHTTPError(resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	// Read one extra byte to detect truncation.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	truncated := int64(len(body)) > maxBytes
	if truncated {
		body = body[:maxBytes]
	}

	return &domain.FetchResult{
		URL:         parsed.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
		Truncated:   truncated,
	}, nil
}
