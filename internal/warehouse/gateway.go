package warehouse

import (
	"context"
	"time"

	"github.com/andeantel/pdp-analytics/backend/internal/metrics"
	"github.com/andeantel/pdp-analytics/backend/internal/retry"
	"github.com/andeantel/pdp-analytics/backend/internal/types"
	"github.com/rs/zerolog"
)

// Gateway is the extraction stage: it admission-controls warehouse
// queries with a counting semaphore and wraps each one with the retry
// policy. A fetch either yields the full period's rows or fails with
// *ExtractionError.
type Gateway struct {
	source  Source
	policy  retry.Policy
	sem     chan struct{}
	timeout time.Duration
	logger  zerolog.Logger
}

// NewGateway creates a gateway allowing at most maxConcurrent in-flight
// warehouse queries process-wide. Excess fetches queue until a slot
// frees. Each individual query carries queryTimeout.
func NewGateway(source Source, policy retry.Policy, maxConcurrent int, queryTimeout time.Duration, logger zerolog.Logger) *Gateway {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Gateway{
		source:  source,
		policy:  policy,
		sem:     make(chan struct{}, maxConcurrent),
		timeout: queryTimeout,
		logger:  logger.With().Str("component", "warehouse_gateway").Logger(),
	}
}

// Fetch returns every gestión row for the period. Transient warehouse
// failures are retried per the policy; fatal ones are not. The result is
// all-or-nothing.
func (g *Gateway) Fetch(ctx context.Context, p types.Period) ([]types.GestionRecord, error) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, &ExtractionError{Period: p, Err: ctx.Err()}
	}
	defer func() { <-g.sem }()

	start, end := p.DateRange()
	g.logger.Info().
		Str("period", p.String()).
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Msg("fetching gestión records")

	var rows []types.GestionRecord
	attempt := 0
	attempts, err := g.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.ExtractionRetriesTotal.Inc()
			g.logger.Warn().Int("attempt", attempt).Str("period", p.String()).Msg("retrying warehouse query")
		}

		qctx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			qctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		got, err := g.source.QueryPeriod(qctx, start, end)
		if err != nil {
			return err
		}
		rows = got
		return nil
	})
	if err != nil {
		metrics.ExtractionFailuresTotal.Inc()
		g.logger.Error().Err(err).Int("attempts", attempts).Str("period", p.String()).Msg("extraction failed")
		return nil, &ExtractionError{Period: p, Attempts: attempts, Err: err}
	}

	metrics.RecordsExtractedTotal.Add(float64(len(rows)))
	g.logger.Info().Int("rows", len(rows)).Str("period", p.String()).Msg("gestión records fetched")
	return rows, nil
}

// DefaultRetryPolicy is the gateway's stock policy: transient errors
// only, exponential backoff.
func DefaultRetryPolicy(maxAttempts int, initial, cap time.Duration) retry.Policy {
	return retry.Policy{
		MaxAttempts:    maxAttempts,
		InitialBackoff: initial,
		MaxBackoff:     cap,
		Retryable:      IsTransient,
	}
}
