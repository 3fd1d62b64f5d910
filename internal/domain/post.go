package domain

import (
	"time"
)

// PostStatus represents the publication state of a post.
type PostStatus string

const (
	PostStatusPending PostStatus = "pending"
	PostStatusPosted  PostStatus = "posted"
	PostStatusFailed  PostStatus = "failed"
)

// Post is one social post produced by a job for an article. Immutable once
// posted, except for engagement stats written back by external consumers.
type Post struct {
	ID              string     `db:"id"               json:"id"`
	JobID           string     `db:"job_id"           json:"job_id"`
	ArticleID       string     `db:"article_id"       json:"article_id"`
	Content         string     `db:"content"          json:"content"`
	Summary         string     `db:"summary"          json:"summary"`
	Strategy        string     `db:"strategy"         json:"strategy"`
	Platform        string     `db:"platform"         json:"platform"`
	ExternalID      *string    `db:"post_id"          json:"post_id,omitempty"`
	Status          PostStatus `db:"status"           json:"status"`
	PostedAt        *time.Time `db:"posted_at"        json:"posted_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at"       json:"created_at"`
	ErrorMessage    *string    `db:"error_message"    json:"error_message,omitempty"`
	EngagementStats []byte     `db:"engagement_stats" json:"-"`
}
