// Package gdocs reads document text and change markers from Google
// Docs/Drive, with request throttling, transient-error retry and a
// local change-detection cache.
package gdocs

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/avelichko/docsbot/pkg/logging"
	"github.com/avelichko/docsbot/pkg/retryutil"
)

// Snapshot is a document fetched at a point in time. Only the
// ModifiedTime marker is ever persisted.
type Snapshot struct {
	DocID        string
	Text         string
	ModifiedTime string
}

// APIClient is the raw provider surface: one call for text, one for the
// change marker. The marker is opaque and only ever compared for
// equality.
type APIClient interface {
	DocumentText(ctx context.Context, docID string) (string, error)
	ModifiedTime(ctx context.Context, docID string) (string, error)
}

// Source wraps an APIClient with a shared rate limiter, retry policy and
// the marker cache. All provider calls for all documents pass through
// the one limiter, so consecutive calls keep a minimum spacing even when
// callers overlap.
type Source struct {
	api     APIClient
	cache   *MarkerCache
	limiter *rate.Limiter
	retry   retryutil.Policy
	logger  *logging.Logger
}

func NewSource(api APIClient, cache *MarkerCache, requestInterval time.Duration, retry retryutil.Policy) *Source {
	return &Source{
		api:     api,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Every(requestInterval), 1),
		retry:   retry,
		logger:  logging.NewLogger("gdocs"),
	}
}

// GetText fetches the document's flattened text.
func (s *Source) GetText(ctx context.Context, docID string) (string, error) {
	return s.call(ctx, docID, s.api.DocumentText)
}

// GetChangeMarker fetches the provider-assigned modifiedTime value.
func (s *Source) GetChangeMarker(ctx context.Context, docID string) (string, error) {
	return s.call(ctx, docID, s.api.ModifiedTime)
}

// NeedsUpdate reports whether the document changed since the last
// persisted sync. marker may be supplied to avoid a second fetch; pass
// "" to have it fetched here.
func (s *Source) NeedsUpdate(ctx context.Context, docID, marker string) (bool, error) {
	current := marker
	if current == "" {
		var err error
		current, err = s.GetChangeMarker(ctx, docID)
		if err != nil {
			return false, err
		}
	}
	cached, err := s.cache.Read(docID)
	if err != nil {
		return false, err
	}
	if cached == nil {
		return true, nil
	}
	return cached.ModifiedTime != current, nil
}

// Fetch reads the marker first and the text second. A document edited
// between the two reads keeps its new text under the older marker until
// the next edit; that staleness window is accepted.
func (s *Source) Fetch(ctx context.Context, docID string) (Snapshot, error) {
	marker, err := s.GetChangeMarker(ctx, docID)
	if err != nil {
		return Snapshot{}, err
	}
	text, err := s.GetText(ctx, docID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{DocID: docID, Text: text, ModifiedTime: marker}, nil
}

// Persist overwrites the cached change record for docID.
func (s *Source) Persist(docID, marker string) error {
	return s.cache.Write(docID, marker)
}

// ReadCached returns the persisted record, or nil when none exists.
func (s *Source) ReadCached(docID string) (*ChangeRecord, error) {
	return s.cache.Read(docID)
}

func (s *Source) call(ctx context.Context, docID string, fn func(context.Context, string) (string, error)) (string, error) {
	var out string
	err := s.retry.Do(ctx, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return retryutil.Permanent(err)
		}
		value, err := fn(ctx, docID)
		if err != nil {
			if !isTransient(err) {
				return retryutil.Permanent(err)
			}
			s.logger.Warn("transient provider error, will retry", "doc_id", docID, "error", err)
			return err
		}
		out = value
		return nil
	})
	return out, err
}
