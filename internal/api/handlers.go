package api

import (
	"encoding/json"
	"net/http"

	"github.com/martinsuchenak/edgetag/internal/classify"
	"github.com/martinsuchenak/edgetag/internal/job"
	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/storage"
)

// Handler handles HTTP requests
type Handler struct {
	storage    storage.Storage
	runner     *job.Runner
	classifier *classify.Classifier
}

// NewHandler creates a new API handler
func NewHandler(s storage.Storage, runner *job.Runner, classifier *classify.Classifier) *Handler {
	if classifier == nil {
		classifier = classify.New()
	}
	return &Handler{
		storage:    s,
		runner:     runner,
		classifier: classifier,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Device CRUD
	mux.HandleFunc("GET /api/devices", h.listDevices)
	mux.HandleFunc("POST /api/devices", h.createDevice)
	mux.HandleFunc("GET /api/devices/{id}", h.getDevice)
	mux.HandleFunc("PUT /api/devices/{id}", h.updateDevice)
	mux.HandleFunc("DELETE /api/devices/{id}", h.deleteDevice)
	mux.HandleFunc("PUT /api/devices/{id}/interfaces", h.setDeviceInterfaces)

	// Tags
	mux.HandleFunc("GET /api/tags", h.listTags)
	mux.HandleFunc("POST /api/tags", h.createTag)
	mux.HandleFunc("GET /api/tags/{id}", h.getTag)
	mux.HandleFunc("DELETE /api/tags/{id}", h.deleteTag)

	// Jobs
	mux.HandleFunc("POST /api/jobs/tag-public-facing", h.runTagJob)
	mux.HandleFunc("GET /api/jobs", h.listJobs)
	mux.HandleFunc("GET /api/jobs/{id}", h.getJob)

	mux.HandleFunc("GET /api/classify", h.classifyAddress)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// internalError logs the error and writes a generic 500 response
func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error("Internal Server Error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "Internal Server Error")
}
