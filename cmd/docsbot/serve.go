package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avelichko/docsbot/internal/agent"
	"github.com/avelichko/docsbot/internal/assistant"
	"github.com/avelichko/docsbot/internal/config"
	"github.com/avelichko/docsbot/internal/schedule"
	"github.com/avelichko/docsbot/internal/server"
	"github.com/avelichko/docsbot/internal/syncer"
	"github.com/avelichko/docsbot/internal/telegram"
	"github.com/avelichko/docsbot/pkg/logging"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the HTTP surface and the periodic sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logging.NewLogger("serve")

	// The index and embedder are shared between the sync pipeline and
	// the assistant's retrieval path.
	source, err := buildDocumentSource(ctx, cfg)
	if err != nil {
		return err
	}
	embedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return err
	}
	index, err := buildVectorIndex(cfg)
	if err != nil {
		return err
	}
	orchestrator := syncer.NewOrchestrator(source, embedder, index, syncer.Options{
		DocIDs:       cfg.GoogleDocIDs,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	})

	threads, closeThreads, err := buildThreadStore(ctx, cfg)
	if err != nil {
		return err
	}
	if closeThreads != nil {
		defer func() { _ = closeThreads() }()
	}

	agentClient := agent.New(cfg.OpenAIAPIKey, cfg.OpenAIAssistantID)
	svc := assistant.NewService(agentClient, index, embedder, threads, cfg.SearchTopK)

	bot, err := telegram.New(cfg.TelegramBotToken, svc)
	if err != nil {
		return err
	}

	var webhookHandler http.HandlerFunc
	if cfg.TelegramWebhookURL != "" {
		if err := bot.RegisterWebhook(cfg.TelegramWebhookURL); err != nil {
			return err
		}
		webhookHandler = bot.WebhookHandler()
	}

	srv := server.New(cfg.ListenAddr, webhookHandler)

	scheduler := schedule.NewScheduler()
	job := &syncJob{orchestrator: orchestrator, logger: log}
	if err := scheduler.AddJob(job, fmt.Sprintf("@every %dm", cfg.SyncIntervalMinutes)); err != nil {
		return fmt.Errorf("schedule sync job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// First sync happens right away; the cron entry only covers the
	// intervals after it.
	go func() {
		if err := job.Run(ctx); err != nil {
			log.Error("initial sync failed", "error", err)
		}
	}()

	errCh := make(chan error, 2)
	go func() { errCh <- srv.ListenAndServe() }()
	if cfg.TelegramWebhookURL == "" {
		go func() {
			if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
				errCh <- fmt.Errorf("telegram polling: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	return srv.Shutdown(context.Background())
}

// syncJob adapts the orchestrator to the scheduler's Job interface.
type syncJob struct {
	orchestrator *syncer.Orchestrator
	logger       *logging.Logger
}

func (j *syncJob) Name() string { return "document-sync" }

func (j *syncJob) Run(ctx context.Context) error {
	results := j.orchestrator.SyncDocuments(ctx, false)
	reportResults(j.logger, results)
	return nil
}
