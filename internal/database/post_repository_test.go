package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/pulselabs/pulse/internal/database"
	"github.com/pulselabs/pulse/internal/domain"
)

func postColumnNames() []string {
	return []string{"id", "job_id", "article_id", "content", "summary", "strategy",
		"platform", "post_id", "status", "posted_at", "created_at",
		"error_message", "engagement_stats"}
}

func TestPostRepository_Insert(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := database.NewPostRepository(db)

	mock.ExpectExec("INSERT INTO posts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	post := &domain.Post{
		JobID:     "job-1",
		ArticleID: "art-1",
		Content:   "Heads up: something happened.",
		Strategy:  string(domain.StrategyCasualTone),
		Platform:  "x",
		Status:    domain.PostStatusPosted,
	}

	if err := repo.Insert(context.Background(), post); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if post.ID == "" {
		t.Error("Insert() left post ID empty")
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestPostRepository_ListByJob(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := database.NewPostRepository(db)
	now := time.Now()
	externalID := "1881234"

	mock.ExpectQuery("SELECT (.+) FROM posts").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(postColumnNames()).
			AddRow("post-1", "job-1", "art-1", "content one", "summary", "casual_tone",
				"x", &externalID, "posted", &now, now, nil, nil).
			AddRow("post-2", "job-1", "art-2", "content two", "summary", "formal_tone",
				"x", nil, "failed", nil, now, strPtr("denied"), nil))

	posts, err := repo.ListByJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("ListByJob() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("ListByJob() count = %d, want 2", len(posts))
	}
	if posts[0].ExternalID == nil || *posts[0].ExternalID != externalID {
		t.Errorf("ListByJob() external id = %v, want %s", posts[0].ExternalID, externalID)
	}
	if posts[1].Status != domain.PostStatusFailed {
		t.Errorf("ListByJob() status = %v, want failed", posts[1].Status)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestPostRepository_UpdateEngagementNotFound(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := database.NewPostRepository(db)

	mock.ExpectExec("UPDATE posts").
		WithArgs("missing", []byte(`{"likes":4}`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateEngagement(context.Background(), "missing", []byte(`{"likes":4}`))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateEngagement() error = %v, want ErrNotFound", err)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func strPtr(s string) *string { return &s }
