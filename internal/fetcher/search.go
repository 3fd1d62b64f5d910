package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pulselabs/pulse/internal/config"
	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/logger"
	"github.com/pulselabs/pulse/internal/ratelimit"
)

const (
	searchRequestTimeout = 30 * time.Second
	// Custom Search returns at most 10 results per request.
	searchMaxPerRequest = 10
)

// SearchSource is the primary adapter, backed by the Google Custom Search
// JSON API.
type SearchSource struct {
	apiKey     string
	engineID   string
	baseURL    string
	limiter    *ratelimit.Limiter
	httpClient *http.Client
	logger     logger.Logger
}

var _ Source = (*SearchSource)(nil)

func NewSearchSource(cfg config.SearchSourceConfig, limiter *ratelimit.Limiter, log logger.Logger) *SearchSource {
	return &SearchSource{
		apiKey:     cfg.APIKey,
		engineID:   cfg.EngineID,
		baseURL:    cfg.BaseURL,
		limiter:    limiter,
		httpClient: &http.Client{Timeout: searchRequestTimeout},
		logger:     log,
	}
}

func (s *SearchSource) Name() string {
	return "search"
}

type searchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Snippet     string `json:"snippet"`
		Link        string `json:"link"`
		DisplayLink string `json:"displayLink"`
		Pagemap     struct {
			Metatags []map[string]string `json:"metatags"`
		} `json:"pagemap"`
	} `json:"items"`
}

func (s *SearchSource) Fetch(ctx context.Context, niche string, limit int) ([]domain.Article, error) {
	if s.apiKey == "" || s.engineID == "" {
		return nil, &SourceError{Source: s.Name(), Err: fmt.Errorf("api key or engine id not configured")}
	}

	if d := s.limiter.Admit(); !d.Allowed {
		return nil, &ratelimit.DeniedError{Service: s.limiter.Service(), Wait: d.Wait}
	}

	if limit > searchMaxPerRequest {
		limit = searchMaxPerRequest
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("cx", s.engineID)
	params.Set("q", queryForNiche(niche))
	params.Set("num", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &SourceError{Source: s.Name(), Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &SourceError{Source: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &SourceError{
			Source: s.Name(),
			Err:    fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(string(body))),
		}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &SourceError{Source: s.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	now := time.Now().UTC()
	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}

		published := searchPublishedTime(item.Pagemap.Metatags, now)
		articles = append(articles, domain.Article{
			Title:       item.Title,
			Description: item.Snippet,
			URL:         item.Link,
			Source:      item.DisplayLink,
			PublishedAt: &published,
			FetchedAt:   now,
			Niche:       niche,
		})
	}

	s.logger.Info("articles fetched from search API",
		logger.String("niche", niche),
		logger.Int("count", len(articles)),
	)

	return articles, nil
}

// searchPublishedTime extracts article:published_time from page metatags,
// falling back to the fetch time when absent or malformed.
func searchPublishedTime(metatags []map[string]string, fallback time.Time) time.Time {
	for _, tags := range metatags {
		if raw, ok := tags["article:published_time"]; ok {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				return ts
			}
		}
	}
	return fallback
}
