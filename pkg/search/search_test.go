package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *log.Logger {
	return log.New(io.Discard)
}

type fakeBedrock struct {
	input *bedrockagentruntime.RetrieveInput
	out   *bedrockagentruntime.RetrieveOutput
	err   error
}

func (f *fakeBedrock) Retrieve(_ context.Context, in *bedrockagentruntime.RetrieveInput, _ ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestBedrockRetriever(t *testing.T) {
	fake := &fakeBedrock{out: &bedrockagentruntime.RetrieveOutput{
		RetrievalResults: []types.KnowledgeBaseRetrievalResult{
			{
				Content: &types.RetrievalResultContent{Text: aws.String("Opening hours are 9-5")},
				Score:   aws.Float64(0.91),
				Location: &types.RetrievalResultLocation{
					S3Location: &types.RetrievalResultS3Location{Uri: aws.String("s3://kb/hours.md")},
				},
			},
			{Content: &types.RetrievalResultContent{Text: aws.String("  ")}},
			{Content: &types.RetrievalResultContent{Text: aws.String("Closed on Sundays")}, Score: aws.Float64(0.5)},
		},
	}}

	r, err := NewBedrockRetriever(fake, "KB123", 3, discard())
	require.NoError(t, err)

	snippets, err := r.Search(context.Background(), "when are you open")
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, Snippet{Text: "Opening hours are 9-5", Score: 0.91, Source: "s3://kb/hours.md"}, snippets[0])
	assert.Equal(t, "Closed on Sundays", snippets[1].Text)

	assert.Equal(t, "KB123", aws.ToString(fake.input.KnowledgeBaseId))
	assert.Equal(t, "when are you open", aws.ToString(fake.input.RetrievalQuery.Text))
	assert.Equal(t, int32(3), aws.ToInt32(fake.input.RetrievalConfiguration.VectorSearchConfiguration.NumberOfResults))
}

func TestBedrockRetrieverErrors(t *testing.T) {
	_, err := NewBedrockRetriever(&fakeBedrock{}, "", 5, discard())
	require.Error(t, err)

	boom := errors.New("access denied")
	r, err := NewBedrockRetriever(&fakeBedrock{err: boom}, "KB", 5, discard())
	require.NoError(t, err)
	_, err = r.Search(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
}

func TestParseWeaviateResult(t *testing.T) {
	raw := `{"Get":{"KnowledgeChunk":[
		{"content":"first","source":"doc-a","_additional":{"certainty":0.88}},
		{"content":"","source":"doc-b"},
		"garbage",
		{"content":"second"}
	]}}`
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &data))

	snippets, err := parseWeaviateResult(data["Get"], "KnowledgeChunk")
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, Snippet{Text: "first", Score: 0.88, Source: "doc-a"}, snippets[0])
	assert.Equal(t, "second", snippets[1].Text)

	snippets, err = parseWeaviateResult(data["Get"], "OtherClass")
	require.NoError(t, err)
	assert.Empty(t, snippets)

	_, err = parseWeaviateResult(nil, "KnowledgeChunk")
	assert.Error(t, err)
}

func TestHTTPRetriever(t *testing.T) {
	var got httpSearchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"text":"a","score":0.7,"source":"s"},{"text":""}]}`))
	}))
	defer server.Close()

	r := NewHTTPRetriever(server.URL, discard(), WithAPIKey("secret"), WithLimit(7))
	snippets, err := r.Search(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []Snippet{{Text: "a", Score: 0.7, Source: "s"}}, snippets)
	assert.Equal(t, httpSearchRequest{Query: "hello", Limit: 7}, got)
}

func TestHTTPRetrieverStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewHTTPRetriever(server.URL, discard()).Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestHTTPRetrieverTimeoutLeavesCallerClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	r := NewHTTPRetriever("http://localhost:9/search", discard(), WithHTTPClient(shared), WithTimeout(time.Second))
	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, time.Second, r.httpClient.Timeout)
	assert.NotSame(t, shared, r.httpClient)

	r = NewHTTPRetriever("http://localhost:9/search", discard(), WithHTTPClient(shared))
	assert.Same(t, shared, r.httpClient)

	r = NewHTTPRetriever("http://localhost:9/search", discard())
	assert.Equal(t, 30*time.Second, r.httpClient.Timeout)
}

func TestNop(t *testing.T) {
	snippets, err := Nop{}.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, snippets)
}
