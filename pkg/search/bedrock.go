package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/charmbracelet/log"
)

// BedrockAPI is the subset of the Bedrock Agent Runtime client used here.
type BedrockAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// BedrockRetriever queries a Bedrock knowledge base.
type BedrockRetriever struct {
	client          BedrockAPI
	knowledgeBaseID string
	limit           int
	logger          *log.Logger
}

func NewBedrockRetriever(client BedrockAPI, knowledgeBaseID string, limit int, logger *log.Logger) (*BedrockRetriever, error) {
	if knowledgeBaseID == "" {
		return nil, errors.New("knowledge base id is required")
	}
	return &BedrockRetriever{
		client:          client,
		knowledgeBaseID: knowledgeBaseID,
		limit:           limit,
		logger:          logger,
	}, nil
}

func NewBedrockRetrieverFromConfig(cfg aws.Config, knowledgeBaseID string, limit int, logger *log.Logger) (*BedrockRetriever, error) {
	return NewBedrockRetriever(bedrockagentruntime.NewFromConfig(cfg), knowledgeBaseID, limit, logger)
}

func (r *BedrockRetriever) Search(ctx context.Context, query string) ([]Snippet, error) {
	input := &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(r.knowledgeBaseID),
		RetrievalQuery:  &types.KnowledgeBaseQuery{Text: aws.String(query)},
	}
	if r.limit > 0 {
		input.RetrievalConfiguration = &types.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(int32(r.limit)),
			},
		}
	}

	out, err := r.client.Retrieve(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock retrieve: %w", err)
	}

	snippets := make([]Snippet, 0, len(out.RetrievalResults))
	for _, res := range out.RetrievalResults {
		s := Snippet{Score: aws.ToFloat64(res.Score)}
		if res.Content != nil {
			s.Text = aws.ToString(res.Content.Text)
		}
		if res.Location != nil && res.Location.S3Location != nil {
			s.Source = aws.ToString(res.Location.S3Location.Uri)
		}
		snippets = append(snippets, s)
	}

	r.logger.Debug("Knowledge base query", "results", len(snippets))
	return compact(snippets), nil
}
