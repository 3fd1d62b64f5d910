package llm

import (
	"context"
	"strings"
)

// MockCompleter is a deterministic Completer for mock mode and tests. It
// answers by echoing the tail of the prompt, which keeps stage outputs
// stable without a live provider.
type MockCompleter struct{}

var _ Completer = (*MockCompleter)(nil)

func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

func (m *MockCompleter) Complete(_ context.Context, req Request) (string, error) {
	lines := strings.Split(strings.TrimSpace(req.Prompt), "\n")
	// take the last non-empty content line so chained stages stay coherent
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" && !strings.HasSuffix(line, ":") {
			return line, nil
		}
	}
	return "mock completion", nil
}
