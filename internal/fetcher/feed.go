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

const feedRequestTimeout = 30 * time.Second

// FeedSource is the secondary adapter, backed by the NewsAPI.org
// /v2/everything endpoint.
type FeedSource struct {
	apiKey     string
	baseURL    string
	limiter    *ratelimit.Limiter
	httpClient *http.Client
	logger     logger.Logger
}

var _ Source = (*FeedSource)(nil)

func NewFeedSource(cfg config.FeedSourceConfig, limiter *ratelimit.Limiter, log logger.Logger) *FeedSource {
	return &FeedSource{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		limiter:    limiter,
		httpClient: &http.Client{Timeout: feedRequestTimeout},
		logger:     log,
	}
}

func (f *FeedSource) Name() string {
	return "feed"
}

type feedResponse struct {
	TotalResults int `json:"totalResults"`
	Articles     []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		Author      string `json:"author"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (f *FeedSource) Fetch(ctx context.Context, niche string, limit int) ([]domain.Article, error) {
	if f.apiKey == "" {
		return nil, &SourceError{Source: f.Name(), Err: fmt.Errorf("api key not configured")}
	}

	if d := f.limiter.Admit(); !d.Allowed {
		return nil, &ratelimit.DeniedError{Service: f.limiter.Service(), Wait: d.Wait}
	}

	params := url.Values{}
	params.Set("q", queryForNiche(niche))
	params.Set("from", time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"))
	params.Set("sortBy", "popularity")
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, &SourceError{Source: f.Name(), Err: err}
	}
	req.Header.Set("X-Api-Key", f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &SourceError{Source: f.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &SourceError{
			Source: f.Name(),
			Err:    fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(string(body))),
		}
	}

	var parsed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &SourceError{Source: f.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	now := time.Now().UTC()
	articles := make([]domain.Article, 0, len(parsed.Articles))
	for _, item := range parsed.Articles {
		// the API pads result pages with removed entries
		if item.Title == "" || item.URL == "" || strings.HasPrefix(item.Title, "[Removed]") {
			continue
		}

		art := domain.Article{
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			URL:         item.URL,
			Source:      item.Source.Name,
			Author:      item.Author,
			FetchedAt:   now,
			Niche:       niche,
		}
		if ts, err := time.Parse(time.RFC3339, item.PublishedAt); err == nil {
			art.PublishedAt = &ts
		}
		articles = append(articles, art)
	}

	f.logger.Info("articles fetched from feed API",
		logger.String("niche", niche),
		logger.Int("count", len(articles)),
		logger.Int("total_available", parsed.TotalResults),
	)

	return articles, nil
}
