// Package embedding turns text into vectors via a pluggable provider,
// with per-item retry so one failed fragment does not poison a batch.
package embedding

import (
	"context"
	"fmt"

	"github.com/avelichko/docsbot/pkg/logging"
	"github.com/avelichko/docsbot/pkg/retryutil"
)

// Result pairs an input text with its vector. Results are 1:1 with the
// non-empty inputs, in input order.
type Result struct {
	Text   string
	Vector []float32
}

// Provider is a single remote embedding call. Implementations live in
// the openaiembed and geminiembed subpackages.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Service struct {
	provider Provider
	retry    retryutil.Policy
	logger   *logging.Logger
}

func NewService(provider Provider, retry retryutil.Policy) *Service {
	return &Service{
		provider: provider,
		retry:    retry,
		logger:   logging.NewLogger("embedding"),
	}
}

// EmbedTexts embeds each text independently. Empty strings are skipped
// (logged, not an error); any provider error is retried per the policy
// and, once attempts are exhausted, fails the whole call.
func (s *Service) EmbedTexts(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, 0, len(texts))
	for _, text := range texts {
		if text == "" {
			s.logger.Debug("skipping empty fragment")
			continue
		}

		var vector []float32
		err := s.retry.Do(ctx, func() error {
			v, err := s.provider.Embed(ctx, text)
			if err != nil {
				return err
			}
			vector = v
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("embed fragment of %d chars: %w", len(text), err)
		}
		results = append(results, Result{Text: text, Vector: vector})
	}
	return results, nil
}
