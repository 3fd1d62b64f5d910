package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pulselabs/pulse/internal/domain"
)

const articleSelectList = `id, title, description, content, url, source, author,
			published_at, fetched_at, niche, content_hash`

// ArticleRepository manages fetched articles in PostgreSQL
type ArticleRepository struct {
	db *sql.DB
}

// NewArticleRepository creates a new repository
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// HasSeen reports whether an article with this content hash or URL has
// already been stored. Backs the deduplication filter.
func (r *ArticleRepository) HasSeen(ctx context.Context, contentHash, url string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM articles
			WHERE content_hash = $1 OR url = $2
		)`,
		contentHash, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has seen: %w", err)
	}
	return exists, nil
}

// Insert stores an article, generating its ID when empty. Dedup runs
// first, so a conflict here means two jobs raced on the same article;
// both content_hash and url are unique, and the same URL can arrive with
// different body text from different sources, so any conflict leaves the
// existing row untouched.
func (r *ArticleRepository) Insert(ctx context.Context, article *domain.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}

	query := `
		INSERT INTO articles (id, title, description, content, url, source,
			author, published_at, fetched_at, niche, content_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		article.ID, article.Title, article.Description, article.Content,
		article.URL, article.Source, article.Author, article.PublishedAt,
		article.FetchedAt, article.Niche, article.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// GetByID retrieves a single article
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	query := `SELECT ` + articleSelectList + `
		FROM articles
		WHERE id = $1`

	var a domain.Article
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Description, &a.Content, &a.URL, &a.Source,
		&a.Author, &a.PublishedAt, &a.FetchedAt, &a.Niche, &a.ContentHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &a, nil
}

// ListByNiche returns the most recently fetched articles for a niche
func (r *ArticleRepository) ListByNiche(ctx context.Context, niche string, limit int) ([]domain.Article, error) {
	query := `SELECT ` + articleSelectList + `
		FROM articles
		WHERE niche = $1
		ORDER BY fetched_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, niche, limit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := make([]domain.Article, 0)
	for rows.Next() {
		var a domain.Article
		scanErr := rows.Scan(
			&a.ID, &a.Title, &a.Description, &a.Content, &a.URL, &a.Source,
			&a.Author, &a.PublishedAt, &a.FetchedAt, &a.Niche, &a.ContentHash,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("scan article: %w", scanErr)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
