package model

import "time"

// Job statuses
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusErrored   = "errored"
)

// Job triggers
const (
	TriggerCLI      = "cli"
	TriggerAPI      = "api"
	TriggerMCP      = "mcp"
	TriggerSchedule = "schedule"
)

// Log levels used in a job log
const (
	LogSuccess = "success"
	LogInfo    = "info"
	LogWarning = "warning"
	LogFailure = "failure"
)

// Job is one execution of the public-facing tagging script
type Job struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Tag         string      `json:"tag"` // tag parameter as supplied (id, slug or name)
	Commit      bool        `json:"commit"`
	Trigger     string      `json:"trigger"`
	Status      string      `json:"status"`
	Log         []LogEntry  `json:"log"`
	Result      []DeviceRef `json:"result"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Finished reports whether the job reached a terminal status.
func (j *Job) Finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusErrored
}

// LogEntry is a single line of a job log
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Object  string    `json:"object,omitempty"`
	Message string    `json:"message"`
}

// DeviceRef identifies a device in a job result
type DeviceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
