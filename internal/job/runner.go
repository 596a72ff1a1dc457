// Package job runs the public-facing tagging script as a recorded job with
// commit or dry-run semantics.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/martinsuchenak/edgetag/internal/classify"
	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/model"
	"github.com/martinsuchenak/edgetag/internal/storage"
	"github.com/martinsuchenak/edgetag/internal/tagger"
	"github.com/martinsuchenak/edgetag/internal/worker"
)

// ScriptName is the job name recorded for tagging runs
const ScriptName = "Tag Public-Facing Devices"

var ErrMissingTag = errors.New("tag parameter is required")

// Runner creates, executes and records tagging jobs
type Runner struct {
	store      storage.Storage
	classifier *classify.Classifier
	pool       *worker.WorkerPool
}

// NewRunner creates a Runner. pool may be nil when only synchronous runs
// are needed.
func NewRunner(store storage.Storage, classifier *classify.Classifier, pool *worker.WorkerPool) *Runner {
	if classifier == nil {
		classifier = classify.New()
	}
	return &Runner{
		store:      store,
		classifier: classifier,
		pool:       pool,
	}
}

// Create records a pending job
func (r *Runner) Create(ctx context.Context, tag string, commit bool, trigger string) (*model.Job, error) {
	if tag == "" {
		return nil, ErrMissingTag
	}

	job := &model.Job{
		Name:      ScriptName,
		Tag:       tag,
		Commit:    commit,
		Trigger:   trigger,
		Status:    model.JobStatusPending,
		Log:       []model.LogEntry{},
		Result:    []model.DeviceRef{},
		CreatedAt: time.Now(),
	}
	if err := r.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("recording job: %w", err)
	}
	return job, nil
}

// RunNow creates a job and executes it before returning
func (r *Runner) RunNow(ctx context.Context, tag string, commit bool, trigger string) (*model.Job, error) {
	job, err := r.Create(ctx, tag, commit, trigger)
	if err != nil {
		return nil, err
	}
	return job, r.Execute(ctx, job)
}

// Enqueue creates a job and hands it to the worker pool. The returned job
// is the pending snapshot; poll the store for progress.
func (r *Runner) Enqueue(ctx context.Context, tag string, commit bool, trigger string) (*model.Job, error) {
	if r.pool == nil {
		return nil, errors.New("no worker pool configured")
	}

	job, err := r.Create(ctx, tag, commit, trigger)
	if err != nil {
		return nil, err
	}

	queued := *job
	err = r.pool.Submit(worker.Task{
		ID: job.ID,
		Handler: func(ctx context.Context) error {
			return r.Execute(ctx, &queued)
		},
		Dropped: func(err error) {
			r.fail(context.Background(), &queued, NewLog(queued.ID), fmt.Errorf("job not started: %w", err))
		},
	})
	if err != nil {
		r.fail(ctx, job, NewLog(job.ID), fmt.Errorf("queueing job: %w", err))
		return nil, err
	}

	log.Info("Job queued", "job_id", job.ID, "tag", tag, "commit", commit, "trigger", trigger)
	return job, nil
}

// Execute runs the tagging script for job and records the outcome. The
// returned error is the run failure, if any; the job itself is always
// persisted with a terminal status.
func (r *Runner) Execute(ctx context.Context, job *model.Job) error {
	jl := NewLog(job.ID)

	started := time.Now()
	job.Status = model.JobStatusRunning
	job.StartedAt = &started
	if err := r.store.UpdateJob(ctx, job); err != nil {
		err = fmt.Errorf("marking job running: %w", err)
		r.fail(ctx, job, jl, err)
		return err
	}

	log.Info("Job started", "job_id", job.ID, "tag", job.Tag, "commit", job.Commit)

	var tagged []model.Device
	err := r.store.Atomic(ctx, job.Commit, func(inv storage.Inventory) error {
		tag, err := inv.GetTag(ctx, job.Tag)
		if err != nil {
			return fmt.Errorf("resolving tag parameter: %w", err)
		}

		devices, err := inv.ListDevices(ctx, &model.DeviceFilter{Status: model.DeviceStatusActive})
		if err != nil {
			return fmt.Errorf("listing active devices: %w", err)
		}

		tagged, err = tagger.New(inv, jl, r.classifier).Run(ctx, devices, *tag)
		return err
	})
	if err != nil {
		r.fail(ctx, job, jl, err)
		return err
	}

	if !job.Commit {
		jl.Info("", "Database changes have been reverted automatically.")
	}

	job.Result = make([]model.DeviceRef, 0, len(tagged))
	for i := range tagged {
		job.Result = append(job.Result, tagged[i].Ref())
	}
	job.Status = model.JobStatusCompleted
	r.finish(ctx, job, jl)

	log.Info("Job completed", "job_id", job.ID, "tagged", len(job.Result), "commit", job.Commit)
	return nil
}

func (r *Runner) fail(ctx context.Context, job *model.Job, jl *Log, err error) {
	jl.Failure("", fmt.Sprintf("An exception occurred: %v", err))
	jl.Warning("", "Database changes have been reverted due to error.")

	job.Status = model.JobStatusErrored
	job.Error = err.Error()
	job.Result = []model.DeviceRef{}
	r.finish(ctx, job, jl)

	log.Error("Job failed", "job_id", job.ID, "error", err)
}

// finish persists the terminal state even when ctx was cancelled
func (r *Runner) finish(ctx context.Context, job *model.Job, jl *Log) {
	completed := time.Now()
	job.CompletedAt = &completed
	job.Log = jl.Entries()

	if err := r.store.UpdateJob(context.WithoutCancel(ctx), job); err != nil {
		log.Error("Failed to record job result", "job_id", job.ID, "error", err)
	}
}
