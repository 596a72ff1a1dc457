package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/martinsuchenak/edgetag/internal/model"
)

const jobColumns = `id, name, tag, commit_changes, trigger_source, status, log, result, error, created_at, started_at, completed_at`

// CreateJob records a new job
func (ss *SQLiteStorage) CreateJob(ctx context.Context, job *model.Job) error {
	defer ss.lock()()

	if job.ID == "" {
		job.ID = newID()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}

	logJSON, resultJSON, err := encodeJobData(job)
	if err != nil {
		return err
	}

	_, err = ss.q.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Name, job.Tag, job.Commit, job.Trigger, job.Status, logJSON, resultJSON, job.Error,
		job.CreatedAt, nullTime(job.StartedAt), nullTime(job.CompletedAt))
	if err != nil {
		return mapConstraintError("inserting job", err)
	}
	return nil
}

// UpdateJob stores the current status, log and result of a job
func (ss *SQLiteStorage) UpdateJob(ctx context.Context, job *model.Job) error {
	defer ss.lock()()

	logJSON, resultJSON, err := encodeJobData(job)
	if err != nil {
		return err
	}

	result, err := ss.q.ExecContext(ctx, `
		UPDATE jobs
		SET status = ?, log = ?, result = ?, error = ?, started_at = ?, completed_at = ?
		WHERE id = ?
	`, job.Status, logJSON, resultJSON, job.Error, nullTime(job.StartedAt), nullTime(job.CompletedAt), job.ID)
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrJobNotFound
	}
	return nil
}

// GetJob retrieves a job by ID
func (ss *SQLiteStorage) GetJob(ctx context.Context, id string) (*model.Job, error) {
	defer ss.rlock()()

	jobs, err := ss.queryJobs(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, ErrJobNotFound
	}
	return &jobs[0], nil
}

// ListJobs returns the most recent jobs first
func (ss *SQLiteStorage) ListJobs(ctx context.Context, limit int) ([]model.Job, error) {
	defer ss.rlock()()

	if limit <= 0 {
		limit = 50
	}
	return ss.queryJobs(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (ss *SQLiteStorage) queryJobs(ctx context.Context, query string, args ...any) ([]model.Job, error) {
	rows, err := ss.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	jobs := []model.Job{}
	for rows.Next() {
		var (
			j                      model.Job
			logJSON, resultJSON    string
			startedAt, completedAt sql.NullTime
		)
		err := rows.Scan(&j.ID, &j.Name, &j.Tag, &j.Commit, &j.Trigger, &j.Status, &logJSON, &resultJSON, &j.Error,
			&j.CreatedAt, &startedAt, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}

		if err := json.Unmarshal([]byte(logJSON), &j.Log); err != nil {
			return nil, fmt.Errorf("decoding job log: %w", err)
		}
		if err := json.Unmarshal([]byte(resultJSON), &j.Result); err != nil {
			return nil, fmt.Errorf("decoding job result: %w", err)
		}
		if startedAt.Valid {
			j.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			j.CompletedAt = &completedAt.Time
		}

		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func encodeJobData(job *model.Job) (string, string, error) {
	entries := job.Log
	if entries == nil {
		entries = []model.LogEntry{}
	}
	result := job.Result
	if result == nil {
		result = []model.DeviceRef{}
	}

	logJSON, err := json.Marshal(entries)
	if err != nil {
		return "", "", fmt.Errorf("encoding job log: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", "", fmt.Errorf("encoding job result: %w", err)
	}
	return string(logJSON), string(resultJSON), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
