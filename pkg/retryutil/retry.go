package retryutil

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes an exponential-backoff retry strategy. Each component
// carries its own Policy so retry behavior stays independent of business
// logic.
type Policy struct {
	// MaxAttempts counts the initial call plus retries. Values below 1
	// are treated as 1.
	MaxAttempts int
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the per-attempt wait. Zero means the backoff
	// library default.
	MaxDelay time.Duration
}

// Do runs op, retrying with exponential backoff until it succeeds, the
// attempts are exhausted, op returns a Permanent error, or ctx is
// cancelled. The last error is returned on exhaustion.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	expo := backoff.NewExponentialBackOff()
	if p.InitialDelay > 0 {
		expo.InitialInterval = p.InitialDelay
	}
	if p.MaxDelay > 0 {
		expo.MaxInterval = p.MaxDelay
	}
	expo.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(attempts-1)), ctx)
	return backoff.Retry(op, b)
}

// Permanent marks err as non-retryable: Do stops immediately and returns
// the original error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
