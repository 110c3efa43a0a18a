package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full environment-sourced configuration, constructed once
// at startup and passed to constructors explicitly.
type Config struct {
	OpenAIAPIKey         string `env:"OPENAI_API_KEY,required"`
	OpenAIEmbeddingModel string `env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	OpenAIAssistantID    string `env:"OPENAI_ASSISTANT_ID,required"`
	SearchTopK           int    `env:"ASSISTANT_SEARCH_TOP_K" envDefault:"3"`

	// EmbeddingProvider selects the embedding backend: "openai" or "gemini".
	EmbeddingProvider    string `env:"EMBEDDING_PROVIDER" envDefault:"openai"`
	GeminiAPIKey         string `env:"GEMINI_API_KEY"`
	GeminiEmbeddingModel string `env:"GEMINI_EMBEDDING_MODEL" envDefault:"gemini-embedding-001"`
	EmbeddingDimension   int    `env:"EMBEDDING_DIMENSION" envDefault:"1536"`

	// Exactly one of the two credential sources must be set: a path to a
	// service-account key file or the inline JSON payload itself.
	GoogleServiceAccountFile string   `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleServiceAccountInfo string   `env:"GOOGLE_SERVICE_ACCOUNT_INFO"`
	GoogleDocIDs             []string `env:"GOOGLE_DOC_IDS,required" envSeparator:","`

	GoogleRequestIntervalSeconds float64 `env:"GOOGLE_REQUEST_INTERVAL_SECONDS" envDefault:"0.25"`
	GoogleMaxRetries             int     `env:"GOOGLE_MAX_RETRIES" envDefault:"5"`
	GoogleRetryInitialDelaySecs  float64 `env:"GOOGLE_RETRY_INITIAL_DELAY" envDefault:"1"`

	QdrantHost           string `env:"QDRANT_HOST" envDefault:"localhost"`
	QdrantPort           int    `env:"QDRANT_PORT" envDefault:"6334"`
	QdrantUseTLS         bool   `env:"QDRANT_USE_TLS" envDefault:"false"`
	QdrantCollectionName string `env:"QDRANT_COLLECTION_NAME" envDefault:"knowledge"`

	ChunkSize    int `env:"EMBEDDING_CHUNK_SIZE" envDefault:"800"`
	ChunkOverlap int `env:"EMBEDDING_CHUNK_OVERLAP" envDefault:"100"`

	SyncIntervalMinutes int `env:"SYNC_INTERVAL_MINUTES" envDefault:"15"`

	TelegramBotToken   string `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramWebhookURL string `env:"TELEGRAM_WEBHOOK_URL"`

	// RedisAddr is the thread-mapping store address. Empty means the
	// in-memory store is used instead.
	RedisAddr string `env:"REDIS_ADDR"`

	ListenAddr   string `env:"LISTEN_ADDR" envDefault:":3000"`
	MetaCacheDir string `env:"META_CACHE_DIR" envDefault:"meta"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load reads .env if present, parses the environment and validates the
// result. Any failure here is fatal to the process.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	ids := make([]string, 0, len(c.GoogleDocIDs))
	for _, id := range c.GoogleDocIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	c.GoogleDocIDs = ids

	c.GoogleServiceAccountFile = strings.TrimSpace(c.GoogleServiceAccountFile)
	c.GoogleServiceAccountInfo = strings.TrimSpace(c.GoogleServiceAccountInfo)
	c.TelegramWebhookURL = strings.TrimSpace(c.TelegramWebhookURL)
	c.EmbeddingProvider = strings.ToLower(strings.TrimSpace(c.EmbeddingProvider))
}

func (c *Config) Validate() error {
	if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountInfo == "" {
		return errors.New("either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_INFO must be set")
	}
	if c.GoogleServiceAccountFile != "" && c.GoogleServiceAccountInfo != "" {
		return errors.New("GOOGLE_SERVICE_ACCOUNT_FILE and GOOGLE_SERVICE_ACCOUNT_INFO are mutually exclusive")
	}
	if len(c.GoogleDocIDs) == 0 {
		return errors.New("GOOGLE_DOC_IDS must list at least one document")
	}
	if c.ChunkSize <= 0 {
		return errors.New("EMBEDDING_CHUNK_SIZE must be positive")
	}
	if c.ChunkOverlap < 0 {
		return errors.New("EMBEDDING_CHUNK_OVERLAP must not be negative")
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return errors.New("EMBEDDING_CHUNK_OVERLAP must be smaller than EMBEDDING_CHUNK_SIZE")
	}
	if c.SyncIntervalMinutes <= 0 {
		return errors.New("SYNC_INTERVAL_MINUTES must be positive")
	}
	if c.QdrantPort <= 0 || c.QdrantPort > 65535 {
		return errors.New("QDRANT_PORT must be in range 1-65535")
	}
	if c.GoogleRequestIntervalSeconds <= 0 {
		return errors.New("GOOGLE_REQUEST_INTERVAL_SECONDS must be positive")
	}
	if c.GoogleMaxRetries <= 0 {
		return errors.New("GOOGLE_MAX_RETRIES must be positive")
	}
	if c.GoogleRetryInitialDelaySecs <= 0 {
		return errors.New("GOOGLE_RETRY_INITIAL_DELAY must be positive")
	}
	if c.SearchTopK <= 0 {
		return errors.New("ASSISTANT_SEARCH_TOP_K must be positive")
	}
	if c.EmbeddingDimension <= 0 {
		return errors.New("EMBEDDING_DIMENSION must be positive")
	}
	switch c.EmbeddingProvider {
	case "openai":
	case "gemini":
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when EMBEDDING_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	if c.TelegramWebhookURL != "" {
		u, err := url.Parse(c.TelegramWebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("TELEGRAM_WEBHOOK_URL %q is not a valid http(s) URL", c.TelegramWebhookURL)
		}
	}
	return nil
}

// GoogleRequestInterval is the minimum spacing between consecutive
// Google API calls.
func (c *Config) GoogleRequestInterval() time.Duration {
	return time.Duration(c.GoogleRequestIntervalSeconds * float64(time.Second))
}

// GoogleRetryInitialDelay is the backoff base for the document source.
func (c *Config) GoogleRetryInitialDelay() time.Duration {
	return time.Duration(c.GoogleRetryInitialDelaySecs * float64(time.Second))
}

// SyncInterval is the cadence of scheduled sync passes in serve mode.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMinutes) * time.Minute
}
