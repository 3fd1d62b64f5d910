package domain

import (
	"time"
)

// JobStatus represents the lifecycle state of a pipeline job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is one pipeline run for a niche. Jobs are created pending, mutated
// only by the job manager, and never deleted; terminal jobs stay terminal.
type Job struct {
	ID           string     `db:"id"            json:"id"`
	Niche        string     `db:"niche"         json:"niche"`
	Preview      bool       `db:"preview"       json:"preview"`
	Status       JobStatus  `db:"status"        json:"status"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	StartedAt    *time.Time `db:"started_at"    json:"started_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	Result       *JobResult `db:"-"             json:"result,omitempty"`
}

// JobResult records partial-success counts and non-fatal errors for a
// completed job. Serialized to the jobs.result JSONB column.
type JobResult struct {
	Fetched    int      `json:"fetched"`
	Duplicates int      `json:"duplicates"`
	Ranked     int      `json:"ranked"`
	Summarized int      `json:"summarized"`
	Posted     int      `json:"posted"`
	Errors     []string `json:"errors"`
}

// AddError appends a non-fatal error note to the result.
func (r *JobResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}
