package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_ASSISTANT_ID", "asst_123")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/tmp/sa.json")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_INFO", "")
	t.Setenv("GOOGLE_DOC_IDS", "doc-a, doc-b ,")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cfg.GoogleDocIDs; len(got) != 2 || got[0] != "doc-a" || got[1] != "doc-b" {
		t.Errorf("GoogleDocIDs got %v, want [doc-a doc-b]", got)
	}
	if cfg.OpenAIEmbeddingModel != "text-embedding-3-small" {
		t.Errorf("embedding model got %q", cfg.OpenAIEmbeddingModel)
	}
	if cfg.SearchTopK != 3 {
		t.Errorf("top-k got %d, want 3", cfg.SearchTopK)
	}
	if cfg.ChunkSize != 800 || cfg.ChunkOverlap != 100 {
		t.Errorf("chunk params got (%d, %d), want (800, 100)", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if got := cfg.GoogleRequestInterval(); got != 250*time.Millisecond {
		t.Errorf("request interval got %v, want 250ms", got)
	}
	if got := cfg.SyncInterval(); got != 15*time.Minute {
		t.Errorf("sync interval got %v, want 15m", got)
	}
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "no credentials",
			env:     map[string]string{"GOOGLE_SERVICE_ACCOUNT_FILE": "", "GOOGLE_SERVICE_ACCOUNT_INFO": ""},
			wantErr: "GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_INFO",
		},
		{
			name:    "both credentials",
			env:     map[string]string{"GOOGLE_SERVICE_ACCOUNT_INFO": `{"type":"service_account"}`},
			wantErr: "mutually exclusive",
		},
		{
			name:    "overlap not smaller than size",
			env:     map[string]string{"EMBEDDING_CHUNK_SIZE": "100", "EMBEDDING_CHUNK_OVERLAP": "100"},
			wantErr: "EMBEDDING_CHUNK_OVERLAP",
		},
		{
			name:    "non-positive sync interval",
			env:     map[string]string{"SYNC_INTERVAL_MINUTES": "0"},
			wantErr: "SYNC_INTERVAL_MINUTES",
		},
		{
			name:    "bad webhook url",
			env:     map[string]string{"TELEGRAM_WEBHOOK_URL": "not a url"},
			wantErr: "TELEGRAM_WEBHOOK_URL",
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"EMBEDDING_PROVIDER": "cohere"},
			wantErr: "EMBEDDING_PROVIDER",
		},
		{
			name:    "gemini without key",
			env:     map[string]string{"EMBEDDING_PROVIDER": "gemini"},
			wantErr: "GEMINI_API_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
