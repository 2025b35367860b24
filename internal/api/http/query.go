package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	apperrors "github.com/arrestview/arrestview/internal/errors"
	"github.com/arrestview/arrestview/internal/observability"
	"github.com/arrestview/arrestview/internal/query"
	"github.com/arrestview/arrestview/pkg/types"
)

// maxBodyBytes caps the size of a filter request body.
const maxBodyBytes = 1 << 20

// defaultStatsTop is the number of entries returned by /stats when no top
// parameter is given.
const defaultStatsTop = 10

// QueryService is the query core consumed by the handlers.
type QueryService interface {
	Filter(ctx context.Context, req query.FilterRequest) ([]types.Record, error)
	Records(ctx context.Context, year int) ([]types.Record, error)
	Summary(ctx context.Context, year int) types.Summary
	Years(ctx context.Context) ([]int, error)
	Stats() *observability.QueryStats
}

// YearsResponse lists the years that have a partition.
type YearsResponse struct {
	Years []int `json:"years"`
}

// QueryHandler serves the filter, records, summary, years and stats endpoints.
type QueryHandler struct {
	service QueryService
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(service QueryService) *QueryHandler {
	return &QueryHandler{service: service}
}

// Filter handles POST /filter.
func (h *QueryHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var req query.FilterRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, apperrors.NewInvalidParameter("body", err))
		return
	}

	records, err := h.service.Filter(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecords(w, r, records)
}

// GetData handles GET /getdata?year=YYYY.
func (h *QueryHandler) GetData(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := h.service.Records(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecords(w, r, records)
}

// DataSummary handles GET /data-summary?year=YYYY.
func (h *QueryHandler) DataSummary(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.service.Summary(r.Context(), year))
}

// Years handles GET /years.
func (h *QueryHandler) Years(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, r, http.StatusOK, YearsResponse{Years: years})
}

// Stats handles GET /stats?top=N.
func (h *QueryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	top := defaultStatsTop
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, apperrors.NewInvalidParameter("top", err))
			return
		}
		top = n
	}
	writeJSON(w, r, http.StatusOK, h.service.Stats().Snapshot(top))
}

// yearParam reads the year query parameter.
func yearParam(r *http.Request) (int, error) {
	year, err := types.ParseYear(r.URL.Query().Get("year"))
	switch {
	case err == nil:
		return year, nil
	case errors.Is(err, types.ErrYearMissing):
		return 0, apperrors.NewMissingParameter("year")
	default:
		return 0, apperrors.NewInvalidParameter("year", err)
	}
}

func writeRecords(w http.ResponseWriter, r *http.Request, records []types.Record) {
	if records == nil {
		records = []types.Record{}
	}
	writeJSON(w, r, http.StatusOK, records)
}
