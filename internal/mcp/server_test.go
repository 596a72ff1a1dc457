package mcp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/martinsuchenak/edgetag/internal/classify"
	"github.com/martinsuchenak/edgetag/internal/job"
	"github.com/martinsuchenak/edgetag/internal/model"
	"github.com/martinsuchenak/edgetag/internal/storage"
)

func setupTestServer(t *testing.T, token string) (*Server, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	if err := store.CreateTag(ctx, &model.Tag{Name: "Public Facing"}); err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	for name, addr := range map[string]string{"edge": "203.0.113.5/24", "core": "172.16.4.1/12"} {
		d := &model.Device{
			Name:       name,
			Status:     model.DeviceStatusActive,
			Interfaces: []model.Interface{{Name: "eth0", Addresses: []model.IPAddress{{Address: addr}}}},
		}
		if err := store.CreateDevice(ctx, d); err != nil {
			t.Fatalf("CreateDevice() error = %v", err)
		}
	}

	classifier := classify.New()
	return NewServer(store, job.NewRunner(store, classifier, nil), classifier, token), store
}

func TestNewServer_RegistersTools(t *testing.T) {
	s, _ := setupTestServer(t, "")

	names := map[string]bool{}
	for _, tool := range s.mcpServer.ListTools() {
		names[tool.Name] = true
	}
	for _, want := range []string{"tag_public_devices", "job_get", "device_list", "classify_address"} {
		if !names[want] {
			t.Errorf("Expected tool %s to be registered", want)
		}
	}
}

func TestTagPublicDevices(t *testing.T) {
	s, store := setupTestServer(t, "")
	ctx := context.Background()

	text, err := s.tagPublicDevices(ctx, "public-facing", modeDryRun)
	if err != nil {
		t.Fatalf("tagPublicDevices() error = %v", err)
	}
	if !strings.Contains(text, "Mode: dry-run") || !strings.Contains(text, "edge") {
		t.Errorf("Unexpected dry run output:\n%s", text)
	}
	edge, _ := store.GetDevice(ctx, "edge")
	if edge.HasTag("public-facing") {
		t.Error("Expected dry run to leave edge untagged")
	}

	text, err = s.tagPublicDevices(ctx, "public-facing", "")
	if err != nil {
		t.Fatalf("tagPublicDevices() error = %v", err)
	}
	if !strings.Contains(text, "Newly tagged (1)") {
		t.Errorf("Expected one tagged device:\n%s", text)
	}
	edge, _ = store.GetDevice(ctx, "edge")
	if !edge.HasTag("public-facing") {
		t.Error("Expected commit to tag edge")
	}

	jobs, _ := store.ListJobs(ctx, 10)
	if len(jobs) != 2 || jobs[0].Trigger != model.TriggerMCP {
		t.Errorf("Expected two MCP jobs, got %+v", jobs)
	}
}

func TestTagPublicDevices_Errors(t *testing.T) {
	s, _ := setupTestServer(t, "")

	if _, err := s.tagPublicDevices(context.Background(), "public-facing", "maybe"); !errors.Is(err, errInvalidMode) {
		t.Errorf("Expected errInvalidMode, got %v", err)
	}
	if _, err := s.tagPublicDevices(context.Background(), "missing", modeCommit); !errors.Is(err, storage.ErrTagNotFound) {
		t.Errorf("Expected ErrTagNotFound, got %v", err)
	}
}

func TestListDevices(t *testing.T) {
	s, _ := setupTestServer(t, "")

	text, err := s.listDevices(context.Background(), model.DeviceStatusActive, nil)
	if err != nil {
		t.Fatalf("listDevices() error = %v", err)
	}
	if !strings.Contains(text, "Found 2 devices") || !strings.Contains(text, "203.0.113.5/24 (active)") {
		t.Errorf("Unexpected output:\n%s", text)
	}

	text, _ = s.listDevices(context.Background(), model.DeviceStatusPlanned, nil)
	if text != "No devices found" {
		t.Errorf("Expected empty result, got %q", text)
	}
}

func TestClassifyAddress(t *testing.T) {
	s, _ := setupTestServer(t, "")

	tests := []struct {
		address string
		want    string
		wantErr bool
	}{
		{"8.8.8.8/32", "8.8.8.8/32 is public", false},
		{"192.168.1.1/24", "192.168.1.1/24 is not public", false},
		{"100.64.0.1/10", "100.64.0.1/10 is not public", false},
		{"fe80::1/64", "", true},
	}

	for _, tt := range tests {
		got, err := s.classifyAddress(tt.address)
		if (err != nil) != tt.wantErr {
			t.Errorf("classifyAddress(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("classifyAddress(%q) = %q, want %q", tt.address, got, tt.want)
		}
	}
}

func TestHandleRequest_Auth(t *testing.T) {
	s, _ := setupTestServer(t, "secret")

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic secret"},
		{"wrong token", "Bearer nope"},
		{"token prefix", "Bearer secre"},
		{"token with suffix", "Bearer secret2"},
		{"lowercase scheme", "bearer secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/mcp", strings.NewReader(`{}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			s.HandleRequest(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", w.Code)
			}
		})
	}
}

func TestHandleRequest_AuthAccepted(t *testing.T) {
	s, _ := setupTestServer(t, "secret")

	req := httptest.NewRequest("POST", "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.HandleRequest(w, req)

	if w.Code == http.StatusUnauthorized {
		t.Errorf("Expected matching token to pass authentication, got %d", w.Code)
	}
}

func TestFormatJob(t *testing.T) {
	j := &model.Job{
		ID:     "job-1",
		Tag:    "public-facing",
		Status: model.JobStatusErrored,
		Error:  "boom",
		Log:    []model.LogEntry{{Level: model.LogFailure, Message: "An exception occurred: boom"}},
	}

	text := formatJob(j)
	for _, want := range []string{"Job job-1: errored", "Mode: dry-run", "Error: boom", "[failure]", "No devices newly tagged"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in:\n%s", want, text)
		}
	}
}
