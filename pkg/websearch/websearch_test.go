package websearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRendersTopResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-API-KEY"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "golang", body["q"])

		_, _ = w.Write([]byte(`{"organic":[
			{"title":"A","link":"https://a","snippet":"sa"},
			{"title":"B","link":"https://b","snippet":"sb"},
			{"title":"C","link":"https://c","snippet":"sc"},
			{"title":"D","link":"https://d","snippet":"sd"}
		]}`))
	}))
	defer server.Close()

	c := NewClient("key", log.New(io.Discard), WithBaseURL(server.URL))
	got := c.Run(context.Background(), "golang")
	assert.Equal(t, "**A**\nsa\nhttps://a\n\n**B**\nsb\nhttps://b\n\n**C**\nsc\nhttps://c", got)
}

func TestRunMessages(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard)

	assert.Equal(t, "Missing API key for web search.", NewClient("", logger).Run(ctx, "q"))

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer failing.Close()
	assert.Equal(t, "Search failed. Status: 403", NewClient("k", logger, WithBaseURL(failing.URL)).Run(ctx, "q"))

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"organic":[]}`))
	}))
	defer empty.Close()
	assert.Equal(t, "No results found.", NewClient("k", logger, WithBaseURL(empty.URL)).Run(ctx, "q"))
}
