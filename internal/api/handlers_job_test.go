package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/martinsuchenak/edgetag/internal/model"
	"github.com/martinsuchenak/edgetag/internal/storage"
)

func waitForJob(t *testing.T, s *storage.SQLiteStorage, id string) *model.Job {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := s.GetJob(context.Background(), id)
		if err != nil {
			t.Fatalf("GetJob() error = %v", err)
		}
		if j.Finished() {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for job")
	return nil
}

func TestHandler_RunTagJob(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedTag(t, store, "Public Facing")
	seedDevice(t, store, "edge", "203.0.113.5/24")
	seedDevice(t, store, "core", "10.1.1.1/16")

	w := serve(handler, "POST", "/api/jobs/tag-public-facing", `{"tag": "public-facing"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	queued := decode[model.Job](t, w)
	if queued.Status != model.JobStatusPending || !queued.Commit {
		t.Errorf("Expected pending committed job, got %+v", queued)
	}
	if loc := w.Header().Get("Location"); loc != "/api/jobs/"+queued.ID {
		t.Errorf("Unexpected Location header %q", loc)
	}

	finished := waitForJob(t, store, queued.ID)
	if finished.Status != model.JobStatusCompleted {
		t.Fatalf("Expected completed job, got %s: %s", finished.Status, finished.Error)
	}
	if len(finished.Result) != 1 || finished.Result[0].Name != "edge" {
		t.Errorf("Expected edge in result, got %+v", finished.Result)
	}

	w = serve(handler, "GET", "/api/jobs/"+queued.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	got := decode[model.Job](t, w)
	if got.Trigger != model.TriggerAPI || len(got.Log) == 0 {
		t.Errorf("Unexpected job %+v", got)
	}

	w = serve(handler, "GET", "/api/devices/edge", nil)
	if d := decode[model.Device](t, w); !d.HasTag("public-facing") {
		t.Error("Expected edge to be tagged")
	}
}

func TestHandler_RunTagJob_DryRun(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedTag(t, store, "Public Facing")
	seedDevice(t, store, "edge", "8.8.8.8/32")

	w := serve(handler, "POST", "/api/jobs/tag-public-facing", `{"tag": "public-facing", "commit": false}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	queued := decode[model.Job](t, w)

	finished := waitForJob(t, store, queued.ID)
	if finished.Commit || len(finished.Result) != 1 {
		t.Errorf("Expected dry run reporting one device, got %+v", finished)
	}

	device, _ := store.GetDevice(context.Background(), "edge")
	if device.HasTag("public-facing") {
		t.Error("Expected dry run to leave the device untagged")
	}
}

func TestHandler_RunTagJob_Validation(t *testing.T) {
	handler, _ := setupTestHandler(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing tag", `{}`, http.StatusBadRequest},
		{"unknown tag", `{"tag": "nope"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(handler, "POST", "/api/jobs/tag-public-facing", tt.body)
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestHandler_ListJobs(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedTag(t, store, "Public Facing")

	for i := 0; i < 3; i++ {
		w := serve(handler, "POST", "/api/jobs/tag-public-facing", `{"tag": "public-facing", "commit": false}`)
		if w.Code != http.StatusAccepted {
			t.Fatalf("Expected status 202, got %d", w.Code)
		}
		waitForJob(t, store, decode[model.Job](t, w).ID)
	}

	w := serve(handler, "GET", "/api/jobs?limit=2", nil)
	if jobs := decode[[]model.Job](t, w); len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}

	w = serve(handler, "GET", "/api/jobs?limit=x", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad limit, got %d", w.Code)
	}

	w = serve(handler, "GET", "/api/jobs/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing job, got %d", w.Code)
	}
}

func TestHandler_Classify(t *testing.T) {
	handler, _ := setupTestHandler(t)

	tests := []struct {
		address string
		status  int
		public  bool
		private bool
		shared  bool
	}{
		{"203.0.113.5/24", http.StatusOK, true, false, false},
		{"8.8.8.8", http.StatusOK, true, false, false},
		{"10.1.2.3/8", http.StatusOK, false, true, false},
		{"100.64.1.1/10", http.StatusOK, false, false, true},
		{"2001:db8::1", http.StatusBadRequest, false, false, false},
		{"garbage", http.StatusBadRequest, false, false, false},
		{"", http.StatusBadRequest, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			w := serve(handler, "GET", "/api/classify?address="+tt.address, nil)
			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, w.Code)
			}
			if tt.status != http.StatusOK {
				return
			}
			got := decode[classifyResponse](t, w)
			if got.Public != tt.public || got.Private != tt.private || got.Shared != tt.shared {
				t.Errorf("Unexpected classification %+v", got)
			}
		})
	}
}
