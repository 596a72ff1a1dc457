package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/model"
	"github.com/martinsuchenak/edgetag/internal/storage"
)

// listTags handles GET /api/tags
func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.storage.ListTags(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tags)
}

// getTag handles GET /api/tags/{id}; id may also be a slug or name
func (h *Handler) getTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.storage.GetTag(r.Context(), r.PathValue("id"))
	if err != nil {
		h.tagError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tag)
}

// createTag handles POST /api/tags
func (h *Handler) createTag(w http.ResponseWriter, r *http.Request) {
	var tag model.Tag
	if err := json.NewDecoder(r.Body).Decode(&tag); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if tag.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	tag.ID = ""
	if err := h.storage.CreateTag(r.Context(), &tag); err != nil {
		h.tagError(w, err)
		return
	}

	log.Info("Created tag", "id", tag.ID, "slug", tag.Slug)
	h.writeJSON(w, http.StatusCreated, tag)
}

// deleteTag handles DELETE /api/tags/{id}
func (h *Handler) deleteTag(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.storage.DeleteTag(r.Context(), id); err != nil {
		h.tagError(w, err)
		return
	}

	log.Info("Deleted tag", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tagError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrTagNotFound):
		h.writeError(w, http.StatusNotFound, "tag not found")
	case errors.Is(err, storage.ErrDuplicate):
		h.writeError(w, http.StatusConflict, "tag already exists")
	case errors.Is(err, storage.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.internalError(w, err)
	}
}
