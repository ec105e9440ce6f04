// Package websearch queries Google through the Serper.dev API.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
)

const (
	DefaultBaseURL = "https://google.serper.dev"

	// TopResults is how many organic results are rendered.
	TopResults = 3
)

var ErrMissingAPIKey = errors.New("missing API key for web search")

// StatusError is a non-200 answer from the search API.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search failed with status %d", e.StatusCode)
}

type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Organic []Result `json:"organic"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

type ClientOption func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(apiKey string, logger *log.Logger, options ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Search returns up to TopResults organic results for query.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Web search", "results", len(out.Organic))
	if len(out.Organic) > TopResults {
		out.Organic = out.Organic[:TopResults]
	}
	return out.Organic, nil
}

// Run performs a search and renders the answer for the model.
func (c *Client) Run(ctx context.Context, query string) string {
	results, err := c.Search(ctx, query)
	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return "Missing API key for web search."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Search failed. Status: %d", statusErr.StatusCode)
	case err != nil:
		c.logger.Error("Web search failed", "error", err)
		return fmt.Sprintf("Search failed: %v", err)
	case len(results) == 0:
		return "No results found."
	}

	return strings.Join(lo.Map(results, func(r Result, _ int) string {
		return fmt.Sprintf("**%s**\n%s\n%s", r.Title, r.Snippet, r.Link)
	}), "\n\n")
}
