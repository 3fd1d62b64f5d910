// Package llm exposes the opaque text-completion capability used by the
// summarization stages.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when the provider answers with no text.
var ErrEmptyCompletion = errors.New("llm returned empty completion")

// Request describes one completion call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Completer produces text from a prompt. Implementations may be slow and
// may fail; callers decide how failures propagate.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
