package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/martinsuchenak/edgetag/internal/classify"
	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/model"
	"github.com/martinsuchenak/edgetag/internal/storage"
)

// listDevices handles GET /api/devices
func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	filter := &model.DeviceFilter{
		Status: r.URL.Query().Get("status"),
		Tags:   r.URL.Query()["tag"],
	}
	if filter.Status != "" && !model.ValidDeviceStatus(filter.Status) {
		h.writeError(w, http.StatusBadRequest, "invalid status: "+filter.Status)
		return
	}

	devices, err := h.storage.ListDevices(r.Context(), filter)
	if err != nil {
		h.internalError(w, err)
		return
	}

	log.Debug("Listed devices", "count", len(devices), "status", filter.Status, "tags", filter.Tags)
	h.writeJSON(w, http.StatusOK, devices)
}

// getDevice handles GET /api/devices/{id}
func (h *Handler) getDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.storage.GetDevice(r.Context(), r.PathValue("id"))
	if err != nil {
		h.deviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, device)
}

// createDevice handles POST /api/devices
func (h *Handler) createDevice(w http.ResponseWriter, r *http.Request) {
	var device model.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if device.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := classify.ValidateDevice(&device); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	device.ID = ""
	if err := h.storage.CreateDevice(r.Context(), &device); err != nil {
		h.deviceError(w, err)
		return
	}

	log.Info("Created device", "id", device.ID, "name", device.Name)
	h.writeJSON(w, http.StatusCreated, device)
}

// updateDevice handles PUT /api/devices/{id}. Interfaces are replaced
// through the dedicated interfaces route.
func (h *Handler) updateDevice(w http.ResponseWriter, r *http.Request) {
	existing, err := h.storage.GetDevice(r.Context(), r.PathValue("id"))
	if err != nil {
		h.deviceError(w, err)
		return
	}

	var req struct {
		Name        *string   `json:"name"`
		Status      *string   `json:"status"`
		Description *string   `json:"description"`
		Tags        *[]string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Status != nil {
		existing.Status = *req.Status
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Tags != nil {
		existing.Tags = *req.Tags
	}
	if existing.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !model.ValidDeviceStatus(existing.Status) {
		h.writeError(w, http.StatusBadRequest, "invalid status: "+existing.Status)
		return
	}

	if err := h.storage.UpdateDevice(r.Context(), existing); err != nil {
		h.deviceError(w, err)
		return
	}

	log.Info("Updated device", "id", existing.ID, "name", existing.Name)
	h.writeJSON(w, http.StatusOK, existing)
}

// deleteDevice handles DELETE /api/devices/{id}
func (h *Handler) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.storage.DeleteDevice(r.Context(), id); err != nil {
		h.deviceError(w, err)
		return
	}

	log.Info("Deleted device", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// setDeviceInterfaces handles PUT /api/devices/{id}/interfaces
func (h *Handler) setDeviceInterfaces(w http.ResponseWriter, r *http.Request) {
	var interfaces []model.Interface
	if err := json.NewDecoder(r.Body).Decode(&interfaces); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := classify.ValidateInterfaces(interfaces); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	device, err := h.storage.GetDevice(r.Context(), r.PathValue("id"))
	if err != nil {
		h.deviceError(w, err)
		return
	}
	if err := h.storage.SetDeviceInterfaces(r.Context(), device.ID, interfaces); err != nil {
		h.deviceError(w, err)
		return
	}

	device, err = h.storage.GetDevice(r.Context(), device.ID)
	if err != nil {
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, device)
}

// deviceError maps storage errors onto HTTP statuses
func (h *Handler) deviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrDeviceNotFound):
		h.writeError(w, http.StatusNotFound, "device not found")
	case errors.Is(err, storage.ErrTagNotFound):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrDuplicate):
		h.writeError(w, http.StatusConflict, "device already exists")
	case errors.Is(err, storage.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.internalError(w, err)
	}
}
