// Package poster publishes composed posts to social platforms.
package poster

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxPostLen is the platform character limit.
const maxPostLen = 280

// Poster publishes one post and returns the platform's ID for it.
type Poster interface {
	Platform() string
	Post(ctx context.Context, content string) (string, error)
}

// PostError carries the platform and HTTP status of a failed attempt.
type PostError struct {
	Platform   string
	StatusCode int
	Err        error
}

func (e *PostError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("post to %s: status %d: %v", e.Platform, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("post to %s: %v", e.Platform, e.Err)
}

func (e *PostError) Unwrap() error { return e.Err }

// Compose appends the source link to the variant text and truncates the
// text, never the link, to fit the platform limit.
func Compose(content, sourceURL string) string {
	if sourceURL == "" {
		return truncate(content, maxPostLen)
	}

	suffix := "\n\nSource: " + sourceURL
	budget := maxPostLen - utf8.RuneCountInString(suffix)
	if budget <= 0 {
		return truncate(content, maxPostLen)
	}

	return truncate(content, budget) + suffix
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	r := []rune(s)[:limit-1]
	// break on a word boundary when one is close enough
	if i := strings.LastIndexByte(string(r), ' '); i > len(string(r))-20 && i > 0 {
		r = []rune(string(r)[:i])
	}
	return strings.TrimRight(string(r), " .,") + "…"
}
