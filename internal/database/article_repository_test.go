package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/pulselabs/pulse/internal/database"
	"github.com/pulselabs/pulse/internal/domain"
)

func TestArticleRepository_HasSeen(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := database.NewArticleRepository(db)
	ctx := context.Background()

	testCases := []struct {
		name      string
		setupMock func()
		want      bool
		wantErr   bool
	}{
		{
			name: "seen article returns true",
			setupMock: func() {
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs("hash-1", "https://example.com/1").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
			want: true,
		},
		{
			name: "unseen article returns false",
			setupMock: func() {
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs("hash-1", "https://example.com/1").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			want: false,
		},
		{
			name: "database error returns error",
			setupMock: func() {
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs("hash-1", "https://example.com/1").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMock()

			seen, err := repo.HasSeen(ctx, "hash-1", "https://example.com/1")
			if (err != nil) != tc.wantErr {
				t.Errorf("HasSeen() error = %v, wantErr %v", err, tc.wantErr)
			}
			if seen != tc.want {
				t.Errorf("HasSeen() = %v, want %v", seen, tc.want)
			}

			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestArticleRepository_InsertGeneratesID(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := database.NewArticleRepository(db)

	mock.ExpectExec("INSERT INTO articles").
		WillReturnResult(sqlmock.NewResult(0, 1))

	article := &domain.Article{
		Title:       "Story",
		URL:         "https://example.com/story",
		Source:      "wire",
		FetchedAt:   time.Now(),
		Niche:       "technology",
		ContentHash: "hash-1",
	}

	if err := repo.Insert(context.Background(), article); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if article.ID == "" {
		t.Error("Insert() left article ID empty")
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestArticleRepository_InsertAbsorbsAnyUniqueConflict(t *testing.T) {
	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	defer db.Close()

	repo := database.NewArticleRepository(db)

	// same URL, different body text: the row loses on the url constraint,
	// not content_hash, and the insert must still be a no-op rather than an
	// error that fails the whole job
	mock.ExpectExec(`INSERT INTO articles .+ ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	article := &domain.Article{
		Title:       "Story",
		URL:         "https://example.com/story",
		Source:      "feed",
		FetchedAt:   time.Now(),
		Niche:       "technology",
		ContentHash: "hash-2",
	}

	if err := repo.Insert(context.Background(), article); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}
