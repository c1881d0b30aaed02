// Package api exposes the report pipeline over REST.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/andeantel/pdp-analytics/backend/internal/filestore"
	"github.com/andeantel/pdp-analytics/backend/internal/report"
	"github.com/andeantel/pdp-analytics/backend/internal/types"
	"github.com/andeantel/pdp-analytics/backend/internal/warehouse"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Processor runs one report generation for the month containing the
// reference date.
type Processor interface {
	ProcessPeriod(ctx context.Context, referenceDate time.Time) (*types.ProcessResponse, error)
}

// ProcessRequest selects the period to process. An empty reference date
// means the current month.
type ProcessRequest struct {
	ReferenceDate string `json:"reference_date"`
}

// PDPHandler provides REST endpoints for report generation and the
// generated-file lifecycle
type PDPHandler struct {
	pipeline Processor
	files    *filestore.Manager
	logger   zerolog.Logger
}

// NewPDPHandler creates a new PDPHandler
func NewPDPHandler(pipeline Processor, files *filestore.Manager, logger zerolog.Logger) *PDPHandler {
	return &PDPHandler{
		pipeline: pipeline,
		files:    files,
		logger:   logger.With().Str("component", "pdp_handler").Logger(),
	}
}

// Process generates the workbook for the requested period
// POST /api/pdp/process
func (h *PDPHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	referenceDate := time.Now().UTC()
	if req.ReferenceDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ReferenceDate)
		if err != nil {
			http.Error(w, "reference_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		referenceDate = parsed
	}

	resp, err := h.pipeline.ProcessPeriod(r.Context(), referenceDate)
	if err != nil {
		var exErr *warehouse.ExtractionError
		var rendErr *report.RenderError
		switch {
		case errors.As(err, &exErr):
			h.logger.Error().Err(err).Msg("warehouse extraction failed")
			http.Error(w, "warehouse extraction failed", http.StatusBadGateway)
		case errors.As(err, &rendErr):
			h.logger.Error().Err(err).Msg("report generation failed")
			http.Error(w, "report generation failed", http.StatusInternalServerError)
		default:
			h.logger.Error().Err(err).Msg("failed to process period")
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Download streams a previously generated workbook
// GET /api/pdp/download/{filename}
func (h *PDPHandler) Download(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := h.files.Resolve(filename)
	if err != nil {
		switch {
		case errors.Is(err, filestore.ErrInvalidFilename):
			http.Error(w, "invalid filename", http.StatusBadRequest)
		case errors.Is(err, filestore.ErrNotFound):
			http.Error(w, "file not found", http.StatusNotFound)
		default:
			h.logger.Error().Err(err).Str("file", filename).Msg("failed to resolve report file")
			http.Error(w, "failed to retrieve file", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeFile(w, r, path)
}

// Cleanup schedules deletion of a generated workbook. Deleting a file
// that is already gone still acknowledges.
// DELETE /api/pdp/cleanup/{filename}
func (h *PDPHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if err := h.files.ScheduleDelete(filename); err != nil {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message":  "file scheduled for deletion",
		"filename": filename,
	})
}
