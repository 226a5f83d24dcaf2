package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/models"
	"github.com/datachat-io/datachat-engine/pkg/services"
)

// QueryHandler handles question answering and history endpoints.
type QueryHandler struct {
	queries services.QueryService
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(queries services.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{queries: queries, logger: logger}
}

// RegisterRoutes registers the query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/datasets/{id}/query", h.Ask)
	mux.HandleFunc("GET /api/datasets/{id}/queries", h.History)
}

// AskRequest is the body of POST /api/datasets/{id}/query.
type AskRequest struct {
	Question string `json:"question"`
}

// Ask handles POST /api/datasets/{id}/query.
func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid dataset id")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "question is required")
		return
	}

	answer, err := h.queries.Ask(r.Context(), id, req.Question)
	if err != nil {
		h.logger.Error("Question answering failed",
			zap.String("dataset_id", id.String()),
			zap.Error(err))
		writeError(w, err)
		return
	}

	// Pipeline failures are part of the answer, not HTTP errors; the user
	// sees what was attempted.
	if err := WriteJSON(w, http.StatusOK, answer); err != nil {
		h.logger.Error("Failed to encode answer", zap.Error(err))
	}
}

// History handles GET /api/datasets/{id}/queries?limit=N.
func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid dataset id")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	records, err := h.queries.History(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*models.QueryRecord{}
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"queries": records})
}
