package domain

import (
	"errors"
)

// ErrNotFound is returned when an entity is not found in the store.
var ErrNotFound = errors.New("entity not found")

// ErrTerminalJob is returned when a transition is attempted on a job
// already in a terminal state.
var ErrTerminalJob = errors.New("job is in a terminal state")
