// Package agent binds the OpenAI Assistants API to the
// assistant.AgentClient interface: thread creation, user turns,
// blocking runs and message listing.
package agent

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/avelichko/docsbot/internal/assistant"
	"github.com/avelichko/docsbot/pkg/logging"
)

type Client struct {
	api         openai.Client
	assistantID string
	logger      *logging.Logger
}

func New(apiKey, assistantID string) *Client {
	return &Client{
		api:         openai.NewClient(option.WithAPIKey(apiKey)),
		assistantID: assistantID,
		logger:      logging.NewLogger("agent"),
	}
}

func (c *Client) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.api.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return thread.ID, nil
}

func (c *Client) AddUserMessage(ctx context.Context, threadID, content string) error {
	_, err := c.api.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role:    openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{OfString: openai.String(content)},
	})
	if err != nil {
		return fmt.Errorf("add message to thread %s: %w", threadID, err)
	}
	return nil
}

// RunToCompletion starts a run and polls until the provider reports a
// terminal state. No timeout is enforced here; cancellation is the
// caller's context.
func (c *Client) RunToCompletion(ctx context.Context, threadID string) error {
	run, err := c.api.Beta.Threads.Runs.NewAndPoll(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: c.assistantID,
	}, 0)
	if err != nil {
		return fmt.Errorf("run thread %s: %w", threadID, err)
	}
	if run.Status != openai.RunStatusCompleted {
		return fmt.Errorf("run on thread %s ended with status %s", threadID, run.Status)
	}
	return nil
}

// ListMessages returns the thread's messages newest-first (the
// provider's default order), reduced to role and text parts.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error) {
	page, err := c.api.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{})
	if err != nil {
		return nil, fmt.Errorf("list messages of thread %s: %w", threadID, err)
	}

	messages := make([]assistant.Message, 0, len(page.Data))
	for _, item := range page.Data {
		message := assistant.Message{Role: string(item.Role)}
		for _, block := range item.Content {
			if block.Type != "text" {
				continue
			}
			message.Parts = append(message.Parts, block.Text.Value)
		}
		messages = append(messages, message)
	}
	return messages, nil
}
