// Package pipeline drives one report run: extract, aggregate, render,
// publish, plus the best-effort connected-time side accumulation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/andeantel/pdp-analytics/backend/internal/aggregate"
	"github.com/andeantel/pdp-analytics/backend/internal/filestore"
	"github.com/andeantel/pdp-analytics/backend/internal/metrics"
	"github.com/andeantel/pdp-analytics/backend/internal/report"
	"github.com/andeantel/pdp-analytics/backend/internal/retry"
	"github.com/andeantel/pdp-analytics/backend/internal/storage"
	"github.com/andeantel/pdp-analytics/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const reportTag = "pdp_report"

// Fetcher is the extraction stage as the pipeline sees it.
type Fetcher interface {
	Fetch(ctx context.Context, p types.Period) ([]types.GestionRecord, error)
}

// Pipeline wires the stages together. Each run owns its data
// exclusively; the only shared state is the gateway semaphore and the
// upsert store.
type Pipeline struct {
	gateway      Fetcher
	store        storage.Store
	renderer     *report.Renderer
	files        *filestore.Manager
	upsertPolicy retry.Policy
	logger       zerolog.Logger
}

func New(gateway Fetcher, store storage.Store, renderer *report.Renderer, files *filestore.Manager, upsertPolicy retry.Policy, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		gateway:      gateway,
		store:        store,
		renderer:     renderer,
		files:        files,
		upsertPolicy: upsertPolicy,
		logger:       logger.With().Str("component", "pipeline").Logger(),
	}
}

// ProcessPeriod runs the full pipeline for the month containing
// referenceDate. Extraction and render failures abort the run;
// connected-time accumulation failures only populate the response's
// error list.
func (p *Pipeline) ProcessPeriod(ctx context.Context, referenceDate time.Time) (*types.ProcessResponse, error) {
	start := time.Now()
	period := types.PeriodFromDate(referenceDate)
	if err := period.Validate(); err != nil {
		return nil, err
	}

	log := p.logger.With().Str("run_id", uuid.NewString()).Str("period", period.String()).Logger()
	log.Info().Msg("processing productivity data")

	records, err := p.gateway.Fetch(ctx, period)
	if err != nil {
		return nil, err
	}

	resp := &types.ProcessResponse{
		TotalRecords: len(records),
		UniqueAgents: countUniqueAgents(records),
		Period:       period.String(),
		Errors:       []string{},
	}

	if len(records) == 0 {
		log.Warn().Msg("no productivity data found")
		resp.Errors = append(resp.Errors, fmt.Sprintf("no productivity data found for period %s", period))
		resp.ProcessingTimeSeconds = time.Since(start).Seconds()
		return resp, nil
	}

	for _, category := range aggregate.UnknownCategories(records) {
		log.Warn().Str("category", category).Msg("unrecognized outcome category, counted as other")
	}

	detail, hm := aggregate.Aggregate(records, period)
	log.Info().
		Int("records", len(records)).
		Int("detail_rows", len(detail)).
		Int("agents", len(hm.Rows)).
		Msg("aggregation completed")

	data, err := p.renderer.Render(detail, hm)
	if err != nil {
		return nil, err
	}

	name := p.files.NewReportName(reportTag)
	if err := p.files.Publish(name, data); err != nil {
		// The file never became available; treat like a render failure.
		return nil, &report.RenderError{Err: err}
	}
	resp.ExcelFilePath = name
	metrics.ReportsGeneratedTotal.Inc()

	// Everything below is best effort: the report already succeeded.
	resp.Errors = append(resp.Errors, p.accumulateConnectedTime(ctx, log, records)...)

	resp.ProcessingTimeSeconds = time.Since(start).Seconds()
	metrics.ProcessingDuration.Observe(resp.ProcessingTimeSeconds)
	log.Info().
		Str("file", name).
		Float64("seconds", resp.ProcessingTimeSeconds).
		Int("errors", len(resp.Errors)).
		Msg("report run completed")
	return resp, nil
}

// accumulateConnectedTime writes per-(date, agent) connected seconds
// into the upsert store with its own bounded retry. Failures are
// reported, never fatal.
func (p *Pipeline) accumulateConnectedTime(ctx context.Context, log zerolog.Logger, records []types.GestionRecord) []string {
	var failures []string
	for _, ct := range aggregate.ConnectedTotals(records) {
		ct := ct
		_, err := p.upsertPolicy.Do(ctx, func(ctx context.Context) error {
			return p.store.Accumulate(ctx, ct.Fecha, ct.Email, ct.Seconds)
		})
		if err != nil {
			metrics.UpsertFailuresTotal.Inc()
			log.Error().Err(err).
				Str("fecha", ct.Fecha).
				Str("email", ct.Email).
				Msg("connected-time accumulation failed")
			failures = append(failures, fmt.Sprintf("connected-time accumulation failed for %s/%s: %v", ct.Fecha, ct.Email, err))
		}
	}
	return failures
}

func countUniqueAgents(records []types.GestionRecord) int {
	agents := make(map[string]struct{}, len(records))
	for _, r := range records {
		agents[r.AgentEmail] = struct{}{}
	}
	return len(agents)
}
