// Package syncer drives the per-document pipeline that keeps the vector
// index in line with the configured Google Docs.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/avelichko/docsbot/internal/chunker"
	"github.com/avelichko/docsbot/internal/embedding"
	"github.com/avelichko/docsbot/internal/gdocs"
	"github.com/avelichko/docsbot/internal/metrics"
	"github.com/avelichko/docsbot/internal/vectorindex"
	"github.com/avelichko/docsbot/pkg/logging"
)

// Status is the terminal state of one document's sync attempt.
type Status string

const (
	StatusSkipped Status = "skipped"
	StatusUpdated Status = "updated"
	StatusDeleted Status = "deleted"
	StatusFailed  Status = "failed"
)

// Result reports the outcome of a single document, in configured order.
type Result struct {
	DocID  string
	Status Status
	Chunks int
	Err    error
}

// DocumentSource is the slice of gdocs.Source the orchestrator uses.
type DocumentSource interface {
	NeedsUpdate(ctx context.Context, docID, marker string) (bool, error)
	Fetch(ctx context.Context, docID string) (gdocs.Snapshot, error)
	Persist(docID, marker string) error
}

// Embedder turns chunk texts into vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([]embedding.Result, error)
}

// VectorIndex is the slice of the index gateway the orchestrator uses.
type VectorIndex interface {
	ReplaceDocument(ctx context.Context, docID string, texts []string, vectors [][]float32, metadata []vectorindex.ChunkMeta) error
	DeleteDocument(ctx context.Context, docID string) error
}

// Options fixes the chunking parameters and the document set.
type Options struct {
	DocIDs       []string
	ChunkSize    int
	ChunkOverlap int
}

type Orchestrator struct {
	source   DocumentSource
	embedder Embedder
	index    VectorIndex
	opts     Options
	logger   *logging.Logger
}

func NewOrchestrator(source DocumentSource, embedder Embedder, index VectorIndex, opts Options) *Orchestrator {
	return &Orchestrator{
		source:   source,
		embedder: embedder,
		index:    index,
		opts:     opts,
		logger:   logging.NewLogger("syncer"),
	}
}

// SyncDocuments processes each configured document fully before starting
// the next one. A failing document is recorded and never aborts the
// rest of the run; force bypasses change detection.
func (o *Orchestrator) SyncDocuments(ctx context.Context, force bool) []Result {
	start := time.Now()
	defer func() { metrics.ObserveSyncRun(time.Since(start)) }()

	results := make([]Result, 0, len(o.opts.DocIDs))
	for _, docID := range o.opts.DocIDs {
		result, err := o.processDocument(ctx, docID, force)
		if err != nil {
			o.logger.Error("document sync failed", "doc_id", docID, "error", err)
			result = Result{DocID: docID, Status: StatusFailed, Err: err}
		}
		metrics.ObserveSyncResult(string(result.Status))
		results = append(results, result)
	}
	return results
}

func (o *Orchestrator) processDocument(ctx context.Context, docID string, force bool) (Result, error) {
	o.logger.Info("checking document", "doc_id", docID)

	if !force {
		needed, err := o.source.NeedsUpdate(ctx, docID, "")
		if err != nil {
			return Result{}, fmt.Errorf("check for changes: %w", err)
		}
		if !needed {
			o.logger.Info("document unchanged, skipping", "doc_id", docID)
			return Result{DocID: docID, Status: StatusSkipped}, nil
		}
	}

	snapshot, err := o.source.Fetch(ctx, docID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch document: %w", err)
	}
	o.logger.Debug("document fetched", "doc_id", docID, "modified", snapshot.ModifiedTime)

	chunks, err := chunker.Split(snapshot.Text, o.opts.ChunkSize, o.opts.ChunkOverlap)
	if err != nil {
		return Result{}, fmt.Errorf("chunk document: %w", err)
	}

	if len(chunks) == 0 {
		o.logger.Warn("document empty after chunking, removing its index records", "doc_id", docID)
		if err := o.index.DeleteDocument(ctx, docID); err != nil {
			return Result{}, fmt.Errorf("delete index records: %w", err)
		}
		if err := o.source.Persist(docID, snapshot.ModifiedTime); err != nil {
			return Result{}, fmt.Errorf("persist change marker: %w", err)
		}
		return Result{DocID: docID, Status: StatusDeleted}, nil
	}

	embedded, err := o.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("embed chunks: %w", err)
	}

	texts := make([]string, len(embedded))
	vectors := make([][]float32, len(embedded))
	metadata := make([]vectorindex.ChunkMeta, len(embedded))
	for i, item := range embedded {
		texts[i] = item.Text
		vectors[i] = item.Vector
		metadata[i] = vectorindex.ChunkMeta{DocID: docID, ChunkIndex: i}
	}

	if err := o.index.ReplaceDocument(ctx, docID, texts, vectors, metadata); err != nil {
		return Result{}, fmt.Errorf("replace index records: %w", err)
	}
	// The marker is written only after the index mutation succeeded, so
	// a crash in between re-syncs the document on the next run.
	if err := o.source.Persist(docID, snapshot.ModifiedTime); err != nil {
		return Result{}, fmt.Errorf("persist change marker: %w", err)
	}

	o.logger.Info("document updated", "doc_id", docID, "chunks", len(texts))
	return Result{DocID: docID, Status: StatusUpdated, Chunks: len(texts)}, nil
}
