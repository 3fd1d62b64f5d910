package poster

import (
	"context"
	"fmt"
	"sync"

	"github.com/pulselabs/pulse/internal/logger"
)

// MockPoster records posts in memory. Used when MOCK_POSTS is set and in
// tests.
type MockPoster struct {
	mu     sync.Mutex
	posts  []string
	nextID int
	logger logger.Logger
}

var _ Poster = (*MockPoster)(nil)

func NewMockPoster(log logger.Logger) *MockPoster {
	return &MockPoster{logger: log}
}

func (p *MockPoster) Platform() string {
	return "mock"
}

func (p *MockPoster) Post(_ context.Context, content string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := fmt.Sprintf("mock-%d", p.nextID)
	p.posts = append(p.posts, content)

	p.logger.Info("mock post recorded",
		logger.String("post_id", id),
		logger.Int("length", len(content)),
	)

	return id, nil
}

// Posts returns everything posted so far.
func (p *MockPoster) Posts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.posts))
	copy(out, p.posts)
	return out
}
