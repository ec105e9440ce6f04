package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// HTTPRetriever talks to a generic retrieval endpoint:
//
//	POST {baseURL}  {"query": "...", "limit": 5}
//	200             {"results": [{"text": "...", "score": 0.9, "source": "..."}]}
type HTTPRetriever struct {
	url        string
	apiKey     string
	limit      int
	timeout    time.Duration
	httpClient *http.Client
	logger     *log.Logger
}

// HTTPOption configures an HTTPRetriever.
type HTTPOption func(*HTTPRetriever)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) HTTPOption {
	return func(r *HTTPRetriever) {
		r.httpClient = httpClient
	}
}

// WithTimeout sets the request timeout. A client passed with WithHTTPClient
// is copied, never modified.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(r *HTTPRetriever) {
		r.timeout = timeout
	}
}

// WithAPIKey sets the Bearer token.
func WithAPIKey(key string) HTTPOption {
	return func(r *HTTPRetriever) {
		r.apiKey = key
	}
}

// WithLimit caps the number of results requested.
func WithLimit(limit int) HTTPOption {
	return func(r *HTTPRetriever) {
		r.limit = limit
	}
}

func NewHTTPRetriever(url string, logger *log.Logger, options ...HTTPOption) *HTTPRetriever {
	r := &HTTPRetriever{
		url:    url,
		limit:  5,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range options {
		opt(r)
	}
	if r.timeout > 0 {
		client := *r.httpClient
		client.Timeout = r.timeout
		r.httpClient = &client
	}
	return r
}

type httpSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type httpSearchResponse struct {
	Results []Snippet `json:"results"`
}

func (r *HTTPRetriever) Search(ctx context.Context, query string) ([]Snippet, error) {
	payload, err := json.Marshal(httpSearchRequest{Query: query, Limit: r.limit})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("retrieval API error (status %d): %s", resp.StatusCode, string(body))
	}

	var out httpSearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	r.logger.Debug("Retrieval API response", "status", resp.StatusCode, "results", len(out.Results))
	return compact(out.Results), nil
}
