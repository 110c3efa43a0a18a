package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/avelichko/docsbot/internal/embedding"
)

type mockAgent struct {
	threadsCreated int
	posted         []string
	runs           int
	onList         func(threadID string) ([]Message, error)
}

func (m *mockAgent) CreateThread(context.Context) (string, error) {
	m.threadsCreated++
	return fmt.Sprintf("thread-%d", m.threadsCreated), nil
}

func (m *mockAgent) AddUserMessage(_ context.Context, threadID, content string) error {
	m.posted = append(m.posted, content)
	return nil
}

func (m *mockAgent) RunToCompletion(context.Context, string) error {
	m.runs++
	return nil
}

func (m *mockAgent) ListMessages(_ context.Context, threadID string) ([]Message, error) {
	if m.onList != nil {
		return m.onList(threadID)
	}
	return []Message{
		{Role: "assistant", Parts: []string{"the answer"}},
		{Role: "user", Parts: []string{"the question"}},
	}, nil
}

type mockSearcher struct {
	groups  [][]string
	queries int
}

func (m *mockSearcher) Query(_ context.Context, _ []float32, _ int) ([][]string, error) {
	m.queries++
	return m.groups, nil
}

type mockEmbedder struct{}

func (mockEmbedder) EmbedTexts(_ context.Context, texts []string) ([]embedding.Result, error) {
	var results []embedding.Result
	for _, text := range texts {
		if text == "" {
			continue
		}
		results = append(results, embedding.Result{Text: text, Vector: []float32{1}})
	}
	return results, nil
}

type memThreads struct {
	m    map[string]string
	sets int
}

func newMemThreads() *memThreads { return &memThreads{m: map[string]string{}} }

func (s *memThreads) Get(_ context.Context, key string) (string, bool, error) {
	id, ok := s.m[key]
	return id, ok, nil
}

func (s *memThreads) Set(_ context.Context, key, threadID string) error {
	s.sets++
	s.m[key] = threadID
	return nil
}

func newTestService(agent *mockAgent, searcher *mockSearcher, threads ThreadStore) *Service {
	return NewService(agent, searcher, mockEmbedder{}, threads, 2)
}

func TestSendMessageCreatesThreadOnceAndReuses(t *testing.T) {
	agent := &mockAgent{}
	threads := newMemThreads()
	svc := newTestService(agent, &mockSearcher{}, threads)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, "user-1", "hello", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.threadsCreated != 1 {
		t.Fatalf("threads created got %d, want 1", agent.threadsCreated)
	}
	if threads.sets != 1 {
		t.Errorf("mapping persisted %d times, want 1", threads.sets)
	}

	second, err := svc.SendMessage(ctx, "user-1", "again", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.threadsCreated != 1 {
		t.Errorf("threads created got %d, want still 1", agent.threadsCreated)
	}
	if first.ThreadID != second.ThreadID {
		t.Errorf("thread ids differ: %q vs %q", first.ThreadID, second.ThreadID)
	}
}

func TestSendMessageThreadOverride(t *testing.T) {
	agent := &mockAgent{}
	threads := newMemThreads()
	svc := newTestService(agent, &mockSearcher{}, threads)

	resp, err := svc.SendMessage(context.Background(), "user-1", "hi", "thread-forced")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ThreadID != "thread-forced" {
		t.Errorf("thread id got %q, want thread-forced", resp.ThreadID)
	}
	if agent.threadsCreated != 0 {
		t.Errorf("threads created got %d, want 0", agent.threadsCreated)
	}
}

func TestPromptWithContext(t *testing.T) {
	agent := &mockAgent{}
	searcher := &mockSearcher{groups: [][]string{{"chunk one", "chunk two"}}}
	svc := newTestService(agent, searcher, newMemThreads())

	resp, err := svc.SendMessage(context.Background(), "user-1", "what is up?", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(agent.posted) != 1 {
		t.Fatalf("posted messages got %d, want 1", len(agent.posted))
	}
	prompt := agent.posted[0]
	want := "Context:\nchunk one\n\nchunk two\n\nQuestion:\nwhat is up?"
	if prompt != want {
		t.Errorf("prompt got %q, want %q", prompt, want)
	}
	if len(resp.ContextChunks) != 2 {
		t.Errorf("context chunks got %v", resp.ContextChunks)
	}
	if agent.runs != 1 {
		t.Errorf("runs got %d, want 1", agent.runs)
	}
}

func TestPromptWithoutContextIsRawMessage(t *testing.T) {
	agent := &mockAgent{}
	svc := newTestService(agent, &mockSearcher{}, newMemThreads())

	if _, err := svc.SendMessage(context.Background(), "user-1", "plain question", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.posted[0] != "plain question" {
		t.Errorf("prompt got %q, want the raw message", agent.posted[0])
	}
}

func TestRetrieveContextTruncatesToTopK(t *testing.T) {
	searcher := &mockSearcher{groups: [][]string{{"c1", "c2", "c3"}}}
	svc := newTestService(&mockAgent{}, searcher, newMemThreads())

	chunks, err := svc.RetrieveContext(context.Background(), "query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 || chunks[0] != "c1" || chunks[1] != "c2" {
		t.Errorf("chunks got %v, want [c1 c2]", chunks)
	}
}

func TestRetrieveContextDropsEmptyEntries(t *testing.T) {
	searcher := &mockSearcher{groups: [][]string{{"", "c1"}, {"c2"}}}
	svc := newTestService(&mockAgent{}, searcher, newMemThreads())

	chunks, err := svc.RetrieveContext(context.Background(), "query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(chunks, ",") != "c1,c2" {
		t.Errorf("chunks got %v, want [c1 c2]", chunks)
	}
}

func TestRetrieveContextEmptyQuery(t *testing.T) {
	searcher := &mockSearcher{groups: [][]string{{"c1"}}}
	svc := newTestService(&mockAgent{}, searcher, newMemThreads())

	chunks, err := svc.RetrieveContext(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("chunks got %v, want none", chunks)
	}
	if searcher.queries != 0 {
		t.Errorf("index queried %d times for empty query, want 0", searcher.queries)
	}
}

func TestMissingAssistantReplyDegradesToEmptyAnswer(t *testing.T) {
	agent := &mockAgent{onList: func(string) ([]Message, error) {
		return []Message{
			{Role: "user", Parts: []string{"question"}},
			{Role: "assistant", Parts: []string{""}},
		}, nil
	}}
	svc := newTestService(agent, &mockSearcher{}, newMemThreads())

	resp, err := svc.SendMessage(context.Background(), "user-1", "anyone there?", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "" {
		t.Errorf("answer got %q, want empty", resp.Answer)
	}
}

func TestAnswerTakesNewestAssistantText(t *testing.T) {
	agent := &mockAgent{onList: func(string) ([]Message, error) {
		return []Message{
			{Role: "assistant", Parts: []string{"", "newest"}},
			{Role: "assistant", Parts: []string{"older"}},
		}, nil
	}}
	svc := newTestService(agent, &mockSearcher{}, newMemThreads())

	resp, err := svc.SendMessage(context.Background(), "user-1", "q", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "newest" {
		t.Errorf("answer got %q, want newest", resp.Answer)
	}
}

func TestSendMessagePropagatesAgentFailure(t *testing.T) {
	agent := &mockAgent{onList: func(string) ([]Message, error) {
		return nil, errors.New("listing failed")
	}}
	svc := newTestService(agent, &mockSearcher{}, newMemThreads())

	if _, err := svc.SendMessage(context.Background(), "user-1", "q", ""); err == nil {
		t.Fatal("expected error from agent failure")
	}
}
