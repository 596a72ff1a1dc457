package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/martinsuchenak/edgetag/internal/classify"
	"github.com/martinsuchenak/edgetag/internal/job"
	"github.com/martinsuchenak/edgetag/internal/model"
	"github.com/martinsuchenak/edgetag/internal/storage"
	"github.com/martinsuchenak/edgetag/internal/worker"
)

type runTagJobRequest struct {
	Tag    string `json:"tag"`
	Commit *bool  `json:"commit"`
}

// runTagJob handles POST /api/jobs/tag-public-facing. The job is queued
// and the pending record returned with 202.
func (h *Handler) runTagJob(w http.ResponseWriter, r *http.Request) {
	var req runTagJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Tag == "" {
		h.writeError(w, http.StatusBadRequest, "tag is required")
		return
	}

	// Fail fast on unknown tags instead of queueing a job that will error
	if _, err := h.storage.GetTag(r.Context(), req.Tag); err != nil {
		h.tagError(w, err)
		return
	}

	commit := true
	if req.Commit != nil {
		commit = *req.Commit
	}

	queued, err := h.runner.Enqueue(r.Context(), req.Tag, commit, model.TriggerAPI)
	if err != nil {
		switch {
		case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolStopped):
			h.writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, job.ErrMissingTag):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.internalError(w, err)
		}
		return
	}

	w.Header().Set("Location", "/api/jobs/"+queued.ID)
	h.writeJSON(w, http.StatusAccepted, queued)
}

// listJobs handles GET /api/jobs
func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	jobs, err := h.storage.ListJobs(r.Context(), limit)
	if err != nil {
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, jobs)
}

// getJob handles GET /api/jobs/{id}
func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.storage.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			h.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, j)
}

type classifyResponse struct {
	Address string `json:"address"`
	Public  bool   `json:"public"`
	Private bool   `json:"private"`
	Shared  bool   `json:"shared"`
}

// classifyAddress handles GET /api/classify?address=
func (h *Handler) classifyAddress(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		h.writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	prefix, err := classify.ParseInterface(address)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	public, err := h.classifier.IsPublic(address)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, classifyResponse{
		Address: prefix.String(),
		Public:  public,
		Private: classify.IsPrivate(prefix.Addr()),
		Shared:  classify.SharedAddressSpace.Contains(prefix.Addr()),
	})
}
