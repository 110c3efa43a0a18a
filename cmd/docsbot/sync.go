package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avelichko/docsbot/internal/syncer"
	"github.com/avelichko/docsbot/pkg/logging"
)

func newSyncCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass over the configured documents and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orchestrator, err := buildOrchestrator(ctx, cfg)
			if err != nil {
				return err
			}

			log := logging.NewLogger("sync")
			log.Info("starting sync pass", "documents", len(cfg.GoogleDocIDs), "force", force)

			results := orchestrator.SyncDocuments(ctx, force)
			reportResults(log, results)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-index every document even when unchanged")
	return cmd
}

// reportResults logs one line per document. Individual failures are
// visible in the log but do not change the exit code; the pass as a
// whole succeeded in visiting every document.
func reportResults(log *logging.Logger, results []syncer.Result) {
	counts := map[syncer.Status]int{}
	for _, r := range results {
		counts[r.Status]++
		switch r.Status {
		case syncer.StatusFailed:
			log.Error("document failed", "doc_id", r.DocID, "error", r.Err)
		case syncer.StatusUpdated:
			log.Info("document updated", "doc_id", r.DocID, "chunks", r.Chunks)
		case syncer.StatusDeleted:
			log.Info("document removed from index", "doc_id", r.DocID)
		default:
			log.Info("document unchanged", "doc_id", r.DocID)
		}
	}
	log.Info("sync pass finished",
		"updated", counts[syncer.StatusUpdated],
		"skipped", counts[syncer.StatusSkipped],
		"deleted", counts[syncer.StatusDeleted],
		"failed", counts[syncer.StatusFailed],
	)
}
