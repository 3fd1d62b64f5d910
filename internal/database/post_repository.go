package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pulselabs/pulse/internal/domain"
)

const postSelectList = `id, job_id, article_id, content, summary, strategy,
			platform, post_id, status, posted_at, created_at,
			error_message, engagement_stats`

// PostRepository manages social posts in PostgreSQL
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new repository
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Insert stores a post, generating its ID when empty
func (r *PostRepository) Insert(ctx context.Context, post *domain.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}

	query := `
		INSERT INTO posts (id, job_id, article_id, content, summary, strategy,
			platform, post_id, status, posted_at, created_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), $11)`

	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.JobID, post.ArticleID, post.Content, post.Summary,
		post.Strategy, post.Platform, post.ExternalID, post.Status,
		post.PostedAt, post.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// ListByJob returns every post a job produced, oldest first
func (r *PostRepository) ListByJob(ctx context.Context, jobID string) ([]domain.Post, error) {
	query := `SELECT ` + postSelectList + `
		FROM posts
		WHERE job_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// UpdateEngagement writes engagement stats back onto a posted entry
func (r *PostRepository) UpdateEngagement(ctx context.Context, id string, stats []byte) error {
	query := `
		UPDATE posts
		SET engagement_stats = $2
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, stats)
	if err != nil {
		return fmt.Errorf("update engagement: %w", err)
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

func scanPosts(rows *sql.Rows) ([]domain.Post, error) {
	posts := make([]domain.Post, 0)
	for rows.Next() {
		var p domain.Post
		err := rows.Scan(
			&p.ID, &p.JobID, &p.ArticleID, &p.Content, &p.Summary,
			&p.Strategy, &p.Platform, &p.ExternalID, &p.Status, &p.PostedAt,
			&p.CreatedAt, &p.ErrorMessage, &p.EngagementStats,
		)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
