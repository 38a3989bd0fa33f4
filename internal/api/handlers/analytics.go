package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-analyzer/internal/analytics"
	"github.com/dvloznov/ledger-analyzer/internal/api/middleware"
	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// AnalyticsHandler exposes the analytics engine over HTTP. All endpoints
// are read-only.
type AnalyticsHandler struct {
	engine *analytics.Engine
	log    zerolog.Logger
}

func NewAnalyticsHandler(engine *analytics.Engine, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{engine: engine, log: log}
}

func (h *AnalyticsHandler) writeEngineError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Document not found")
	case errors.Is(err, domain.ErrInsufficientData):
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Str("op", op).Msg("Analytics operation failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Analytics operation failed")
	}
}

// Summary handles GET /api/analytics/summary/{documentId}.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request, documentID string) {
	summary, err := h.engine.Summarize(r.Context(), documentID)
	if err != nil {
		h.writeEngineError(w, err, "summary")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// Ratios handles GET /api/analytics/ratios/{documentId}.
func (h *AnalyticsHandler) Ratios(w http.ResponseWriter, r *http.Request, documentID string) {
	ratios, err := h.engine.Ratios(r.Context(), documentID)
	if err != nil {
		h.writeEngineError(w, err, "ratios")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, ratios)
}

// Trends handles GET /api/analytics/trends?periods=2024-01,2024-02&category=Revenue.
func (h *AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	periods := splitParam(query.Get("periods"))
	if len(periods) < 2 {
		middleware.WriteError(w, http.StatusBadRequest, "at least 2 comma-separated periods are required")
		return
	}

	series, err := h.engine.AnalyzeTrendsByPeriod(r.Context(), periods, query.Get("category"))
	if err != nil {
		h.writeEngineError(w, err, "trends")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, series)
}

// Comparison handles GET /api/analytics/comparison?base=2024-01&target=2024-02
// or ?base_doc=...&target_doc=....
func (h *AnalyticsHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var result *analytics.ComparisonResult
	var err error
	switch {
	case query.Get("base") != "" && query.Get("target") != "":
		result, err = h.engine.ComparePeriods(r.Context(), query.Get("base"), query.Get("target"))
	case query.Get("base_doc") != "" && query.Get("target_doc") != "":
		result, err = h.engine.CompareDocuments(r.Context(), query.Get("base_doc"), query.Get("target_doc"))
	default:
		middleware.WriteError(w, http.StatusBadRequest, "base/target periods or base_doc/target_doc are required")
		return
	}
	if err != nil {
		h.writeEngineError(w, err, "comparison")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// Forecast handles GET /api/analytics/forecast?periods=2024-01,2024-02,2024-03&ahead=2&category=Revenue.
// The history is built by summing each listed period's records.
func (h *AnalyticsHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	periods := splitParam(query.Get("periods"))
	if len(periods) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "periods parameter is required")
		return
	}
	ahead := 1
	if v := query.Get("ahead"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ahead = n
		}
	}
	category := query.Get("category")

	series, err := h.engine.AnalyzeTrendsByPeriod(r.Context(), periods, category)
	if err != nil {
		h.writeEngineError(w, err, "forecast")
		return
	}
	history := make([]float64, 0, len(series.Points))
	for _, p := range series.Points {
		history = append(history, p.Total)
	}

	var result *analytics.ForecastResult
	if category != "" {
		result, err = h.engine.ForecastCategory(history, ahead)
	} else {
		result, err = h.engine.Forecast(history, ahead)
	}
	if err != nil {
		h.writeEngineError(w, err, "forecast")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// Anomalies handles GET /api/analytics/anomalies/{documentId}.
func (h *AnalyticsHandler) Anomalies(w http.ResponseWriter, r *http.Request, documentID string) {
	anomalies, err := h.engine.DetectAnomalies(r.Context(), documentID)
	if err != nil {
		h.writeEngineError(w, err, "anomalies")
		return
	}
	if anomalies == nil {
		anomalies = []analytics.Anomaly{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": documentID,
		"anomalies":   anomalies,
		"count":       len(anomalies),
	})
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
