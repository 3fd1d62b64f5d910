package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/pulselabs/pulse/internal/database"
	"github.com/pulselabs/pulse/internal/domain"
)

const jobColumns = "id, niche, preview, status, created_at, started_at, completed_at, error_message, result"

func jobColumnNames() []string {
	return []string{"id", "niche", "preview", "status", "created_at", "started_at", "completed_at", "error_message", "result"}
}

func TestJobRepository_Create(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := database.NewJobRepository(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("INSERT INTO jobs").
		WithArgs(sqlmock.AnyArg(), "technology", false, domain.JobStatusPending).
		WillReturnRows(sqlmock.NewRows(jobColumnNames()).
			AddRow("job-1", "technology", false, "pending", now, nil, nil, nil, nil))

	job, err := repo.Create(ctx, "technology", false)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if job.Status != domain.JobStatusPending {
		t.Errorf("Create() status = %v, want pending", job.Status)
	}
	if job.Niche != "technology" {
		t.Errorf("Create() niche = %v, want technology", job.Niche)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestJobRepository_ClaimPending(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := database.NewJobRepository(db)
	ctx := context.Background()
	now := time.Now()

	testCases := []struct {
		name      string
		setupMock func()
		wantCount int
		wantErr   bool
	}{
		{
			name: "claims pending jobs oldest first",
			setupMock: func() {
				mock.ExpectQuery("UPDATE jobs").
					WithArgs(2).
					WillReturnRows(sqlmock.NewRows(jobColumnNames()).
						AddRow("job-1", "technology", false, "running", now, now, nil, nil, nil).
						AddRow("job-2", "science", true, "running", now, now, nil, nil, nil))
			},
			wantCount: 2,
		},
		{
			name: "no pending jobs returns empty slice",
			setupMock: func() {
				mock.ExpectQuery("UPDATE jobs").
					WithArgs(2).
					WillReturnRows(sqlmock.NewRows(jobColumnNames()))
			},
			wantCount: 0,
		},
		{
			name: "database error returns error",
			setupMock: func() {
				mock.ExpectQuery("UPDATE jobs").
					WithArgs(2).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMock()

			jobs, err := repo.ClaimPending(ctx, 2)
			if (err != nil) != tc.wantErr {
				t.Errorf("ClaimPending() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && len(jobs) != tc.wantCount {
				t.Errorf("ClaimPending() count = %d, want %d", len(jobs), tc.wantCount)
			}

			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestJobRepository_MarkCompleted(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := database.NewJobRepository(db)
	ctx := context.Background()
	result := &domain.JobResult{Fetched: 10, Posted: 3, Errors: []string{"feed: timeout"}}

	testCases := []struct {
		name      string
		setupMock func()
		wantErr   error
	}{
		{
			name: "marks running job completed",
			setupMock: func() {
				mock.ExpectExec("UPDATE jobs").
					WithArgs("job-1", sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "terminal job is not updated",
			setupMock: func() {
				mock.ExpectExec("UPDATE jobs").
					WithArgs("job-1", sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMock()

			err := repo.MarkCompleted(ctx, "job-1", result)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("MarkCompleted() error = %v, want %v", err, tc.wantErr)
			}

			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestJobRepository_GetByID(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := database.NewJobRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("found with result payload", func(t *testing.T) {
		mock.ExpectQuery("SELECT " + jobColumns).
			WithArgs("job-1").
			WillReturnRows(sqlmock.NewRows(jobColumnNames()).
				AddRow("job-1", "technology", false, "completed", now, now, now, nil,
					[]byte(`{"fetched":5,"posted":2,"errors":["scrape: status 403"]}`)))

		job, err := repo.GetByID(ctx, "job-1")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if job.Result == nil || job.Result.Fetched != 5 {
			t.Errorf("GetByID() result = %+v, want fetched 5", job.Result)
		}
		if len(job.Result.Errors) != 1 {
			t.Errorf("GetByID() errors = %v, want one entry", job.Result.Errors)
		}
	})

	t.Run("missing job returns ErrNotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT " + jobColumns).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "missing")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("GetByID() error = %v, want ErrNotFound", err)
		}
	})

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestJobRepository_FailStale(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := database.NewJobRepository(db)

	mock.ExpectExec("UPDATE jobs").
		WithArgs("30m0s").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.FailStale(context.Background(), 30*time.Minute)
	if err != nil {
		t.Fatalf("FailStale() error = %v", err)
	}
	if n != 3 {
		t.Errorf("FailStale() = %d, want 3", n)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}
