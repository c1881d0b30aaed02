// Package warehouse pulls raw gestión activity out of the analytical
// warehouse for one period, with bounded concurrency and retries.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andeantel/pdp-analytics/backend/internal/types"
)

// Source is the warehouse query boundary: all gestión rows whose date
// falls inside [start, end], or an error.
type Source interface {
	QueryPeriod(ctx context.Context, start, end time.Time) ([]types.GestionRecord, error)
}

// TransientError marks a warehouse failure worth retrying (timeouts,
// rate limits, transport resets). Anything not wrapped in it is fatal.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient warehouse error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ExtractionError is the fatal outcome of a fetch: retries were
// exhausted or the query itself was rejected. No partial rows accompany
// it.
type ExtractionError struct {
	Period   types.Period
	Attempts int
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for period %s after %d attempt(s): %v", e.Period, e.Attempts, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
