// Package geminiembed binds the Gemini embedding model to the
// embedding.Provider interface.
package geminiembed

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/avelichko/docsbot/pkg/logging"
)

type Client struct {
	genAI     *genai.Client
	model     string
	dimension int32
	logger    *logging.Logger
}

func New(ctx context.Context, apiKey, model string, dimension int32) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		genAI:     c,
		model:     model,
		dimension: dimension,
		logger:    logging.NewLogger("gemini_embedding"),
	}, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	c.logger.Debug("requesting embedding", "chars", len(text))

	result, err := c.genAI.Models.EmbedContent(ctx, c.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
			c.logger.Warn("gemini rate limit hit", "error", err)
		}
		return nil, err
	}
	if len(result.Embeddings) == 0 {
		return nil, errors.New("gemini returned no embedding data")
	}
	return result.Embeddings[0].Values, nil
}
