package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datachat-io/datachat-engine/pkg/models"
	"github.com/datachat-io/datachat-engine/pkg/services"
)

// maxUploadBytes caps uploaded file size at 50 MiB.
const maxUploadBytes = 50 << 20

// DatasetHandler handles dataset upload and management endpoints.
type DatasetHandler struct {
	datasets services.DatasetService
	logger   *zap.Logger
}

// NewDatasetHandler creates a new DatasetHandler.
func NewDatasetHandler(datasets services.DatasetService, logger *zap.Logger) *DatasetHandler {
	return &DatasetHandler{datasets: datasets, logger: logger}
}

// RegisterRoutes registers the dataset routes on the given mux.
func (h *DatasetHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/datasets", h.Upload)
	mux.HandleFunc("GET /api/datasets", h.List)
	mux.HandleFunc("GET /api/datasets/{id}", h.Get)
	mux.HandleFunc("DELETE /api/datasets/{id}", h.Delete)
}

// DatasetResponse is a dataset with its tables.
type DatasetResponse struct {
	Dataset *models.Dataset        `json:"dataset"`
	Tables  []*models.DatasetTable `json:"tables"`
}

// Upload handles POST /api/datasets with a multipart "file" field.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "could not parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "missing file field")
		return
	}
	defer file.Close()

	dataset, tables, err := h.datasets.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("Dataset upload failed",
			zap.String("filename", header.Filename),
			zap.Error(err))
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "upload_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusCreated, DatasetResponse{Dataset: dataset, Tables: tables}); err != nil {
		h.logger.Error("Failed to encode upload response", zap.Error(err))
	}
}

// List handles GET /api/datasets.
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.datasets.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if datasets == nil {
		datasets = []*models.Dataset{}
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"datasets": datasets})
}

// Get handles GET /api/datasets/{id}.
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid dataset id")
		return
	}

	dataset, tables, err := h.datasets.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, DatasetResponse{Dataset: dataset, Tables: tables})
}

// Delete handles DELETE /api/datasets/{id}.
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid dataset id")
		return
	}

	if err := h.datasets.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
