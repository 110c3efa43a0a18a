// Package openaiembed binds the OpenAI embeddings endpoint to the
// embedding.Provider interface.
package openaiembed

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/avelichko/docsbot/pkg/logging"
)

type Client struct {
	api    openai.Client
	model  string
	logger *logging.Logger
}

func New(apiKey, model string) *Client {
	return &Client{
		api:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logging.NewLogger("openai_embedding"),
	}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	c.logger.Debug("requesting embedding", "chars", len(text))

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai returned no embedding data")
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}
