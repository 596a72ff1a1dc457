package api

import (
	"net/http"
	"testing"

	"github.com/martinsuchenak/edgetag/internal/model"
)

func TestHandler_ListDevices_Empty(t *testing.T) {
	handler, _ := setupTestHandler(t)

	w := serve(handler, "GET", "/api/devices", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	devices := decode[[]model.Device](t, w)
	if len(devices) != 0 {
		t.Errorf("Expected 0 devices, got %d", len(devices))
	}
}

func TestHandler_CreateDevice(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedTag(t, store, "edge")

	body := `{
		"name": "edge-router-1",
		"description": "Border router",
		"tags": ["edge"],
		"interfaces": [
			{"name": "ge-0/0", "addresses": [{"address": "203.0.113.5/24"}]},
			{"name": "lo", "addresses": [{"address": "127.0.0.1/8", "status": "reserved"}]}
		]
	}`

	w := serve(handler, "POST", "/api/devices", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	created := decode[model.Device](t, w)
	if created.ID == "" {
		t.Error("Expected generated ID")
	}
	if created.Status != model.DeviceStatusActive {
		t.Errorf("Expected default status active, got %s", created.Status)
	}
	if len(created.Interfaces) != 2 {
		t.Fatalf("Expected 2 interfaces, got %d", len(created.Interfaces))
	}
	if created.Interfaces[0].Addresses[0].Status != model.AddressStatusActive {
		t.Errorf("Expected default address status, got %s", created.Interfaces[0].Addresses[0].Status)
	}

	w = serve(handler, "GET", "/api/devices/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on get, got %d", w.Code)
	}
	got := decode[model.Device](t, w)
	if got.Name != "edge-router-1" || !got.HasTag("edge") {
		t.Errorf("Unexpected device %+v", got)
	}
}

func TestHandler_CreateDevice_Validation(t *testing.T) {
	handler, _ := setupTestHandler(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing name", `{"status": "active"}`, http.StatusBadRequest},
		{"bad status", `{"name": "x", "status": "exploded"}`, http.StatusBadRequest},
		{"bad address", `{"name": "x", "interfaces": [{"name": "eth0", "addresses": [{"address": "999.1.1.1/24"}]}]}`, http.StatusBadRequest},
		{"ipv6 address", `{"name": "x", "interfaces": [{"name": "eth0", "addresses": [{"address": "2001:db8::1/64"}]}]}`, http.StatusBadRequest},
		{"bad address status", `{"name": "x", "interfaces": [{"name": "eth0", "addresses": [{"address": "8.8.8.8/32", "status": "gone"}]}]}`, http.StatusBadRequest},
		{"duplicate interface", `{"name": "x", "interfaces": [{"name": "eth0"}, {"name": "eth0"}]}`, http.StatusBadRequest},
		{"unknown tag", `{"name": "x", "tags": ["nope"]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(handler, "POST", "/api/devices", tt.body)
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandler_CreateDevice_Duplicate(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedDevice(t, store, "dup", "10.0.0.1/8")

	w := serve(handler, "POST", "/api/devices", `{"name": "dup"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestHandler_GetDevice_NotFound(t *testing.T) {
	handler, _ := setupTestHandler(t)

	w := serve(handler, "GET", "/api/devices/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHandler_ListDevices_Filter(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedDevice(t, store, "a", "10.0.0.1/8")
	planned := seedDevice(t, store, "b", "10.0.0.2/8")

	w := serve(handler, "PUT", "/api/devices/"+planned.ID, `{"status": "planned"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on update, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(handler, "GET", "/api/devices?status=active", nil)
	devices := decode[[]model.Device](t, w)
	if len(devices) != 1 || devices[0].Name != "a" {
		t.Errorf("Expected only device a, got %+v", devices)
	}

	w = serve(handler, "GET", "/api/devices?status=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad status filter, got %d", w.Code)
	}
}

func TestHandler_UpdateDevice_KeepsInterfaces(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedTag(t, store, "edge")
	device := seedDevice(t, store, "router", "8.8.8.8/32")

	w := serve(handler, "PUT", "/api/devices/router", `{"description": "updated", "tags": ["edge"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(handler, "GET", "/api/devices/"+device.ID, nil)
	got := decode[model.Device](t, w)
	if got.Description != "updated" || !got.HasTag("edge") {
		t.Errorf("Update not applied: %+v", got)
	}
	if len(got.Interfaces) != 1 {
		t.Errorf("Expected interfaces to be preserved, got %d", len(got.Interfaces))
	}
}

func TestHandler_SetDeviceInterfaces(t *testing.T) {
	handler, store := setupTestHandler(t)
	device := seedDevice(t, store, "router", "10.0.0.1/8")

	body := `[{"name": "wan", "addresses": [{"address": "198.51.100.7/24", "status": "active"}]}]`
	w := serve(handler, "PUT", "/api/devices/"+device.ID+"/interfaces", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	got := decode[model.Device](t, w)
	if len(got.Interfaces) != 1 || got.Interfaces[0].Name != "wan" {
		t.Errorf("Expected interfaces replaced, got %+v", got.Interfaces)
	}

	w = serve(handler, "PUT", "/api/devices/"+device.ID+"/interfaces", `[{"name": "wan", "addresses": [{"address": "nope"}]}]`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid address, got %d", w.Code)
	}

	w = serve(handler, "PUT", "/api/devices/missing/interfaces", `[]`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing device, got %d", w.Code)
	}
}

func TestHandler_DeleteDevice(t *testing.T) {
	handler, store := setupTestHandler(t)
	device := seedDevice(t, store, "gone", "10.0.0.1/8")

	w := serve(handler, "DELETE", "/api/devices/"+device.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}

	w = serve(handler, "DELETE", "/api/devices/"+device.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", w.Code)
	}
}
