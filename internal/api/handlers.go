package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nexoratech/riskvault/internal/engine"
	"github.com/nexoratech/riskvault/internal/models"
	"github.com/nexoratech/riskvault/internal/utils"
)

// maxRequestBody bounds the decoded request size (8 MiB).
const maxRequestBody = 8 << 20

// Analyzer is the service operation the handlers expose.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error)
}

// Handler serves the analysis API.
type Handler struct {
	logger  *slog.Logger
	service Analyzer
}

// NewHandler constructs the HTTP handler facade.
func NewHandler(logger *slog.Logger, service Analyzer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// Routes builds the request mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/analyze", h.handleAnalyze)
	mux.HandleFunc("GET /api/v1/healthz", h.handleHealthz)
	return mux
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		h.writeError(w, http.StatusServiceUnavailable, "analysis service not configured")
		return
	}

	var req models.AnalysisRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Events) == 0 && req.TimeRange == nil {
		h.writeError(w, http.StatusBadRequest, "either events or time_range is required")
		return
	}
	if req.TimeRange != nil && !req.TimeRange.End.After(req.TimeRange.Start) {
		h.writeError(w, http.StatusBadRequest, "time_range.end must be after time_range.start")
		return
	}

	result, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		var structural *engine.StructuralError
		var cfgErr *engine.ConfigError
		switch {
		case errors.As(err, &structural), errors.As(err, &cfgErr):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			if appErr, ok := utils.AsAppError(err); ok {
				h.logger.Error("analysis request failed", slog.String("op", appErr.Op), slog.Any("error", err))
				h.writeError(w, http.StatusBadGateway, appErr.Msg)
				return
			}
			h.logger.Error("analysis request failed", slog.Any("error", err))
			h.writeError(w, http.StatusInternalServerError, "analysis failed")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("write response failed", slog.Any("error", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
