// Package assistant answers user questions: it retrieves relevant chunks
// from the vector index and delegates reasoning to a hosted assistant
// thread, one thread per user key.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avelichko/docsbot/internal/embedding"
	"github.com/avelichko/docsbot/internal/metrics"
	"github.com/avelichko/docsbot/pkg/logging"
)

// Message is a provider-neutral view of one thread entry, newest first
// in ListMessages output. Parts carries the text payloads in order.
type Message struct {
	Role  string
	Parts []string
}

// AgentClient is the conversational-agent binding.
type AgentClient interface {
	CreateThread(ctx context.Context) (string, error)
	AddUserMessage(ctx context.Context, threadID, content string) error
	RunToCompletion(ctx context.Context, threadID string) error
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}

// ThreadStore maps a user key to its conversation thread id.
type ThreadStore interface {
	Get(ctx context.Context, key string) (threadID string, found bool, err error)
	Set(ctx context.Context, key, threadID string) error
}

// Embedder embeds the query text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([]embedding.Result, error)
}

// VectorSearcher runs the nearest-neighbor lookup.
type VectorSearcher interface {
	Query(ctx context.Context, vector []float32, limit int) ([][]string, error)
}

// Response is the outcome of one question/answer turn.
type Response struct {
	ThreadID      string
	Answer        string
	ContextChunks []string
}

type Service struct {
	agent    AgentClient
	index    VectorSearcher
	embedder Embedder
	threads  ThreadStore
	topK     int
	logger   *logging.Logger
}

func NewService(agent AgentClient, index VectorSearcher, embedder Embedder, threads ThreadStore, topK int) *Service {
	return &Service{
		agent:    agent,
		index:    index,
		embedder: embedder,
		threads:  threads,
		topK:     topK,
		logger:   logging.NewLogger("assistant"),
	}
}

// SendMessage resolves the user's thread (creating and persisting one on
// first contact, unless threadOverride is given), augments the message
// with retrieved context and runs the agent to completion. A missing
// assistant reply degrades to an empty answer rather than an error.
func (s *Service) SendMessage(ctx context.Context, userKey, message, threadOverride string) (Response, error) {
	start := time.Now()

	threadID := threadOverride
	if threadID == "" {
		var err error
		threadID, err = s.getOrCreateThread(ctx, userKey)
		if err != nil {
			metrics.ObserveAssistantRequest("error")
			return Response{}, err
		}
	}

	chunks, err := s.RetrieveContext(ctx, message)
	if err != nil {
		metrics.ObserveAssistantRequest("error")
		return Response{}, err
	}
	prompt := buildPrompt(message, chunks)

	s.logger.Debug("posting message", "thread_id", threadID, "context_chunks", len(chunks))
	if err := s.agent.AddUserMessage(ctx, threadID, prompt); err != nil {
		metrics.ObserveAssistantRequest("error")
		return Response{}, fmt.Errorf("post user message: %w", err)
	}
	if err := s.agent.RunToCompletion(ctx, threadID); err != nil {
		metrics.ObserveAssistantRequest("error")
		return Response{}, fmt.Errorf("run assistant: %w", err)
	}

	answer, err := s.extractLastAssistantReply(ctx, threadID)
	if err != nil {
		metrics.ObserveAssistantRequest("error")
		return Response{}, err
	}

	outcome := "answered"
	if answer == "" {
		outcome = "empty"
	}
	metrics.ObserveAssistantRequest(outcome)
	metrics.CaptureExecutionMetrics("assistant_turn", time.Since(start))

	return Response{ThreadID: threadID, Answer: answer, ContextChunks: chunks}, nil
}

// RetrieveContext embeds the query and returns up to topK chunk texts in
// relevance order. An empty query yields no context.
func (s *Service) RetrieveContext(ctx context.Context, query string) ([]string, error) {
	results, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	groups, err := s.index.Query(ctx, results[0].Vector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	var chunks []string
	for _, group := range groups {
		for _, chunk := range group {
			if chunk == "" {
				continue
			}
			chunks = append(chunks, chunk)
		}
	}
	if len(chunks) > s.topK {
		chunks = chunks[:s.topK]
	}
	return chunks, nil
}

func (s *Service) getOrCreateThread(ctx context.Context, userKey string) (string, error) {
	existing, found, err := s.threads.Get(ctx, userKey)
	if err != nil {
		return "", fmt.Errorf("look up thread for %s: %w", userKey, err)
	}
	if found && existing != "" {
		return existing, nil
	}

	threadID, err := s.agent.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	s.logger.Debug("created thread", "thread_id", threadID, "user_key", userKey)
	if err := s.threads.Set(ctx, userKey, threadID); err != nil {
		return "", fmt.Errorf("persist thread mapping: %w", err)
	}
	return threadID, nil
}

// buildPrompt prepends a labeled context block when there is any
// context; otherwise the raw message passes through unmodified.
func buildPrompt(message string, chunks []string) string {
	contextText := strings.TrimSpace(strings.Join(chunks, "\n\n"))
	if contextText == "" {
		return message
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", contextText, message)
}

// extractLastAssistantReply scans the thread newest-first for an
// assistant entry with a non-empty text part. No reply is a warning,
// not an error.
func (s *Service) extractLastAssistantReply(ctx context.Context, threadID string) (string, error) {
	messages, err := s.agent.ListMessages(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("list thread messages: %w", err)
	}
	for _, message := range messages {
		if message.Role != "assistant" {
			continue
		}
		for _, part := range message.Parts {
			if part != "" {
				return part, nil
			}
		}
	}
	s.logger.Warn("no assistant reply found, returning empty answer", "thread_id", threadID)
	return "", nil
}
