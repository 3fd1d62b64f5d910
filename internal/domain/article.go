// Package domain contains the core domain models for the pulse pipeline.
package domain

import (
	"time"
)

// Article is a news article fetched for a niche. Articles are immutable
// once persisted; content_hash and url are each unique in the store.
type Article struct {
	ID          string     `db:"id"           json:"id"`
	Title       string     `db:"title"        json:"title"`
	Description string     `db:"description"  json:"description"`
	Content     string     `db:"content"      json:"content"`
	URL         string     `db:"url"          json:"url"`
	Source      string     `db:"source"       json:"source"`
	Author      string     `db:"author"       json:"author,omitempty"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
	FetchedAt   time.Time  `db:"fetched_at"   json:"fetched_at"`
	Niche       string     `db:"niche"        json:"niche"`
	ContentHash string     `db:"content_hash" json:"content_hash"`
}

// Body returns the best available text for downstream stages:
// full content when present, description otherwise.
func (a *Article) Body() string {
	if a.Content != "" {
		return a.Content
	}
	return a.Description
}

// RankedArticle wraps an Article with its composite score and sub-scores.
// Produced transiently per ranking pass; never persisted on its own.
type RankedArticle struct {
	Article Article `json:"article"`

	Score      float64 `json:"score"`
	Relevance  float64 `json:"relevance"`
	Freshness  float64 `json:"freshness"`
	Authority  float64 `json:"authority"`
	Engagement float64 `json:"engagement"`
}
