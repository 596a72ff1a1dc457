package job

import (
	"sync"
	"time"

	"github.com/paularlott/logger"

	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/model"
)

// Log collects the operator-facing messages of one job and mirrors them to
// the process logger.
type Log struct {
	mu      sync.Mutex
	entries []model.LogEntry
	logger  logger.Logger
}

// NewLog creates an empty job log for jobID
func NewLog(jobID string) *Log {
	return &Log{
		entries: []model.LogEntry{},
		logger:  log.With("job_id", jobID),
	}
}

func (l *Log) Success(object, message string) { l.add(model.LogSuccess, object, message) }
func (l *Log) Info(object, message string)    { l.add(model.LogInfo, object, message) }
func (l *Log) Warning(object, message string) { l.add(model.LogWarning, object, message) }
func (l *Log) Failure(object, message string) { l.add(model.LogFailure, object, message) }

// Entries returns a copy of the entries written so far
func (l *Log) Entries() []model.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) add(level, object, message string) {
	l.mu.Lock()
	l.entries = append(l.entries, model.LogEntry{
		Time:    time.Now(),
		Level:   level,
		Object:  object,
		Message: message,
	})
	l.mu.Unlock()

	switch level {
	case model.LogFailure:
		l.logger.Error(message, "object", object)
	case model.LogWarning:
		l.logger.Warn(message, "object", object)
	default:
		l.logger.Info(message, "object", object, "level", level)
	}
}
