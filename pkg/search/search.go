// Package search is a thin client for the external semantic retrieval
// service. Results are opaque ranked snippets; no retry is attempted here.
package search

import (
	"context"
	"strings"

	"github.com/samber/lo"
)

type Snippet struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
}

// Searcher issues one retrieval call per query and returns snippets in rank order.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Snippet, error)
}

// Nop is used when no retrieval backend is configured.
type Nop struct{}

func (Nop) Search(context.Context, string) ([]Snippet, error) {
	return nil, nil
}

// compact drops snippets without text, keeping rank order.
func compact(snippets []Snippet) []Snippet {
	return lo.Filter(snippets, func(s Snippet, _ int) bool {
		return strings.TrimSpace(s.Text) != ""
	})
}
