package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pulselabs/pulse/internal/domain"
)

// jobSelectList is the column list for SELECT/RETURNING on jobs (single
// source for schema changes)
const jobSelectList = `id, niche, preview, status, created_at, started_at,
			completed_at, error_message, result`

// JobRepository manages pipeline jobs in PostgreSQL
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new repository
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new pending job and returns it
func (r *JobRepository) Create(ctx context.Context, niche string, preview bool) (*domain.Job, error) {
	query := `
		INSERT INTO jobs (id, niche, preview, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING ` + jobSelectList

	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), niche, preview, domain.JobStatusPending)
	return scanJob(row)
}

// ClaimPending transitions up to limit pending jobs to running and
// returns them, oldest first. Uses FOR UPDATE SKIP LOCKED so concurrent
// workers never claim the same job.
func (r *JobRepository) ClaimPending(ctx context.Context, limit int) ([]domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = 'running', started_at = NOW()
		WHERE id IN (
			SELECT id FROM jobs
			WHERE status = 'pending'
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobSelectList

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("claim pending: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// MarkCompleted stores the job result and transitions the job to
// completed. Terminal jobs are never updated.
func (r *JobRepository) MarkCompleted(ctx context.Context, id string, result *domain.JobResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	query := `
		UPDATE jobs
		SET status = 'completed',
		    completed_at = NOW(),
		    result = $2
		WHERE id = $1
		  AND status = 'running'`
	if execErr := r.execExpectOneRow(ctx, query, id, payload); execErr != nil {
		if errors.Is(execErr, domain.ErrNotFound) {
			return execErr
		}
		return fmt.Errorf("mark completed: %w", execErr)
	}
	return nil
}

// MarkFailed transitions a running job to failed with an error message
func (r *JobRepository) MarkFailed(ctx context.Context, id, errorMsg string) error {
	query := `
		UPDATE jobs
		SET status = 'failed',
		    completed_at = NOW(),
		    error_message = $2
		WHERE id = $1
		  AND status = 'running'`
	if err := r.execExpectOneRow(ctx, query, id, errorMsg); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// FailStale marks running jobs older than the cutoff as failed. Handles
// jobs whose worker died mid-run.
func (r *JobRepository) FailStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE jobs
		SET status = 'failed',
		    completed_at = NOW(),
		    error_message = 'job exceeded maximum runtime'
		WHERE status = 'running'
		  AND started_at < NOW() - $1::interval`

	result, err := r.db.ExecContext(ctx, query, olderThan.String())
	if err != nil {
		return 0, fmt.Errorf("fail stale: %w", err)
	}

	return result.RowsAffected()
}

// GetByID retrieves a single job
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	query := `SELECT ` + jobSelectList + `
		FROM jobs
		WHERE id = $1`

	return scanJob(r.db.QueryRowContext(ctx, query, id))
}

// List returns the most recent jobs, newest first
func (r *JobRepository) List(ctx context.Context, limit int) ([]domain.Job, error) {
	query := `SELECT ` + jobSelectList + `
		FROM jobs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// execExpectOneRow runs an exec and returns domain.ErrNotFound when no
// row was affected
func (r *JobRepository) execExpectOneRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return fmt.Errorf("get affected rows: %w", rowsErr)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobInto(s rowScanner) (*domain.Job, error) {
	var j domain.Job
	var result []byte

	err := s.Scan(
		&j.ID, &j.Niche, &j.Preview, &j.Status, &j.CreatedAt,
		&j.StartedAt, &j.CompletedAt, &j.ErrorMessage, &result,
	)
	if err != nil {
		return nil, err
	}

	if len(result) > 0 {
		var r domain.JobResult
		if unmarshalErr := json.Unmarshal(result, &r); unmarshalErr != nil {
			return nil, fmt.Errorf("unmarshal result: %w", unmarshalErr)
		}
		j.Result = &r
	}

	return &j, nil
}

func scanJob(row *sql.Row) (*domain.Job, error) {
	j, err := scanJobInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return j, nil
}

func scanJobs(rows *sql.Rows) ([]domain.Job, error) {
	jobs := make([]domain.Job, 0)
	for rows.Next() {
		j, err := scanJobInto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}
