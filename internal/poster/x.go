package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pulselabs/pulse/internal/logger"
	"github.com/pulselabs/pulse/internal/ratelimit"
)

const (
	xDefaultBaseURL = "https://api.twitter.com/2/tweets"
	xRequestTimeout = 30 * time.Second
)

// XPoster publishes to X via the v2 tweets endpoint. It carries its own
// limiter so posting pressure never competes with fetch quotas.
type XPoster struct {
	bearerToken string
	baseURL     string
	limiter     *ratelimit.Limiter
	httpClient  *http.Client
	logger      logger.Logger
}

var _ Poster = (*XPoster)(nil)

func NewXPoster(bearerToken, baseURL string, limiter *ratelimit.Limiter, log logger.Logger) *XPoster {
	if baseURL == "" {
		baseURL = xDefaultBaseURL
	}
	return &XPoster{
		bearerToken: bearerToken,
		baseURL:     baseURL,
		limiter:     limiter,
		httpClient:  &http.Client{Timeout: xRequestTimeout},
		logger:      log,
	}
}

func (p *XPoster) Platform() string {
	return "x"
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (p *XPoster) Post(ctx context.Context, content string) (string, error) {
	if p.bearerToken == "" {
		return "", &PostError{Platform: p.Platform(), Err: fmt.Errorf("bearer token not configured")}
	}

	if d := p.limiter.Admit(); !d.Allowed {
		return "", &PostError{
			Platform: p.Platform(),
			Err:      &ratelimit.DeniedError{Service: p.limiter.Service(), Wait: d.Wait},
		}
	}

	payload, err := json.Marshal(tweetRequest{Text: content})
	if err != nil {
		return "", &PostError{Platform: p.Platform(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", &PostError{Platform: p.Platform(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.bearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", &PostError{Platform: p.Platform(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &PostError{
			Platform:   p.Platform(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var parsed tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &PostError{Platform: p.Platform(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.Data.ID == "" {
		return "", &PostError{Platform: p.Platform(), Err: fmt.Errorf("response missing tweet id")}
	}

	p.logger.Info("post published",
		logger.String("platform", p.Platform()),
		logger.String("post_id", parsed.Data.ID),
	)

	return parsed.Data.ID, nil
}
