package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/model"
)

// Enqueuer queues a tagging job
type Enqueuer interface {
	Enqueue(ctx context.Context, tag string, commit bool, trigger string) (*model.Job, error)
}

// Scheduler enqueues tagging jobs on cron schedules
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	enqueuer Enqueuer
	running  bool
}

// NewScheduler creates a scheduler. Schedules use the standard five-field
// cron syntax plus descriptors such as @hourly and @every 30m.
func NewScheduler(enqueuer Enqueuer) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cronLogger{})),
		enqueuer: enqueuer,
	}
}

// AddTagJob registers a recurring tagging run
func (s *Scheduler) AddTagJob(spec, tag string, commit bool) error {
	id, err := s.cron.AddFunc(spec, func() {
		job, err := s.enqueuer.Enqueue(context.Background(), tag, commit, model.TriggerSchedule)
		if err != nil {
			log.Error("Scheduled run not queued", "tag", tag, "error", err)
			return
		}
		log.Info("Scheduled run queued", "job_id", job.ID, "tag", tag)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	log.Info("Schedule registered", "entry", id, "schedule", spec, "tag", tag, "commit", commit)
	return nil
}

// Len returns the number of registered schedules
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	log.Info("Starting background scheduler", "schedules", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for in-flight callbacks
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	log.Info("Stopping background scheduler")
	<-s.cron.Stop().Done()
	s.running = false
}

// cronLogger routes cron's own messages into the process logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
