package llm

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulselabs/pulse/internal/config"
	"github.com/pulselabs/pulse/internal/logger"
	"github.com/pulselabs/pulse/internal/metrics"
	"github.com/pulselabs/pulse/internal/ratelimit"
)

func TestAnthropicCompleteDeniedByLimiter(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	limiter := ratelimit.New("llm_api", 1, time.Hour)
	require.True(t, limiter.Admit().Allowed, "exhaust the single slot")

	c := NewAnthropicClient(
		config.LLMConfig{APIKey: "key", Model: "claude-3-5-haiku-latest"},
		limiter, m, logger.NewNopLogger(),
	)

	_, err := c.Complete(context.Background(), Request{Prompt: "hello"})

	var denied *ratelimit.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "llm_api", denied.Service)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequests.WithLabelValues("rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitHits.WithLabelValues("llm_api")))
}
