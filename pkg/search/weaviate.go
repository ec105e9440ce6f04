package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
)

// WeaviateRetriever runs a nearText query against one class with a
// "content" text property.
type WeaviateRetriever struct {
	client    *weaviate.Client
	className string
	limit     int
	logger    *log.Logger
}

func NewWeaviateRetriever(client *weaviate.Client, className string, limit int, logger *log.Logger) *WeaviateRetriever {
	return &WeaviateRetriever{
		client:    client,
		className: className,
		limit:     limit,
		logger:    logger,
	}
}

func (r *WeaviateRetriever) Search(ctx context.Context, query string) ([]Snippet, error) {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	nearText := r.client.GraphQL().
		NearTextArgBuilder().
		WithConcepts([]string{query})

	builder := r.client.GraphQL().Get().
		WithClassName(r.className).
		WithFields(fields...).
		WithNearText(nearText)
	if r.limit > 0 {
		builder = builder.WithLimit(r.limit)
	}

	resp, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to execute Weaviate GraphQL query: %w", err)
	}
	if len(resp.Errors) > 0 {
		var errMsgs []string
		for _, e := range resp.Errors {
			errMsgs = append(errMsgs, e.Message)
		}
		return nil, fmt.Errorf("GraphQL query returned errors: %s", strings.Join(errMsgs, "; "))
	}

	snippets, err := parseWeaviateResult(resp.Data["Get"], r.className)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Weaviate query", "class", r.className, "results", len(snippets))
	return snippets, nil
}

func parseWeaviateResult(data any, className string) ([]Snippet, error) {
	get, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected structure for GraphQL response data 'Get'")
	}

	// A missing class key means no hits.
	items, ok := get[className].([]any)
	if !ok {
		return nil, nil
	}

	snippets := make([]Snippet, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		s := Snippet{}
		s.Text, _ = m["content"].(string)
		s.Source, _ = m["source"].(string)
		if additional, ok := m["_additional"].(map[string]any); ok {
			s.Score, _ = additional["certainty"].(float64)
		}
		snippets = append(snippets, s)
	}
	return compact(snippets), nil
}
