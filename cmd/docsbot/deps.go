package main

import (
	"context"
	"fmt"

	"github.com/avelichko/docsbot/internal/config"
	"github.com/avelichko/docsbot/internal/embedding"
	"github.com/avelichko/docsbot/internal/embedding/geminiembed"
	"github.com/avelichko/docsbot/internal/embedding/openaiembed"
	"github.com/avelichko/docsbot/internal/gdocs"
	"github.com/avelichko/docsbot/internal/syncer"
	"github.com/avelichko/docsbot/internal/threadstore"
	"github.com/avelichko/docsbot/internal/vectorindex"
	"github.com/avelichko/docsbot/pkg/logging"
	"github.com/avelichko/docsbot/pkg/retryutil"
)

// setup loads config and initializes logging; every command starts here.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(cfg.LogLevel)
	return cfg, nil
}

func buildEmbedder(ctx context.Context, cfg *config.Config) (*embedding.Service, error) {
	retry := retryutil.Policy{MaxAttempts: 3}

	switch cfg.EmbeddingProvider {
	case "gemini":
		provider, err := geminiembed.New(ctx, cfg.GeminiAPIKey, cfg.GeminiEmbeddingModel, int32(cfg.EmbeddingDimension))
		if err != nil {
			return nil, fmt.Errorf("create gemini embedder: %w", err)
		}
		return embedding.NewService(provider, retry), nil
	default:
		provider := openaiembed.New(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingModel)
		return embedding.NewService(provider, retry), nil
	}
}

func buildDocumentSource(ctx context.Context, cfg *config.Config) (*gdocs.Source, error) {
	api, err := gdocs.NewGoogleClient(ctx, gdocs.Credentials{
		File: cfg.GoogleServiceAccountFile,
		JSON: cfg.GoogleServiceAccountInfo,
	})
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}
	cache, err := gdocs.NewMarkerCache(cfg.MetaCacheDir)
	if err != nil {
		return nil, fmt.Errorf("open marker cache: %w", err)
	}
	retry := retryutil.Policy{
		MaxAttempts:  cfg.GoogleMaxRetries,
		InitialDelay: cfg.GoogleRetryInitialDelay(),
	}
	return gdocs.NewSource(api, cache, cfg.GoogleRequestInterval(), retry), nil
}

func buildVectorIndex(cfg *config.Config) (*vectorindex.Gateway, error) {
	index, err := vectorindex.New(vectorindex.Config{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		UseTLS:     cfg.QdrantUseTLS,
		Collection: cfg.QdrantCollectionName,
		Dimension:  cfg.EmbeddingDimension,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}
	return index, nil
}

func buildOrchestrator(ctx context.Context, cfg *config.Config) (*syncer.Orchestrator, error) {
	source, err := buildDocumentSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	index, err := buildVectorIndex(cfg)
	if err != nil {
		return nil, err
	}
	return syncer.NewOrchestrator(source, embedder, index, syncer.Options{
		DocIDs:       cfg.GoogleDocIDs,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}), nil
}

// buildThreadStore returns Redis when an address is configured and the
// in-memory store otherwise. The closer is nil for the memory store.
func buildThreadStore(ctx context.Context, cfg *config.Config) (threadstore.Store, func() error, error) {
	if cfg.RedisAddr == "" {
		return threadstore.NewMemory(), nil, nil
	}
	store, err := threadstore.NewRedis(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	return store, store.Close, nil
}
