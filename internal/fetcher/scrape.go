package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pulselabs/pulse/internal/config"
	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/logger"
	"github.com/pulselabs/pulse/internal/ratelimit"
)

const (
	scrapeRequestTimeout = 30 * time.Second
	scrapeUserAgent      = "Pulse/1.0 (+https://pulse-news.example.com)"
	minParagraphLen      = 50
	maxParagraphs        = 3
)

var titleSelectors = []string{
	"h1",
	"[data-testid='headline']",
	".article-title",
	".post-title",
	".entry-title",
}

var contentSelectors = []string{
	"[data-testid='article-body']",
	".article-content",
	".post-content",
	".entry-content",
	"article p",
	".content p",
}

// ScrapeSource is the fallback adapter: it scrapes configured page URLs
// per niche with goquery. Best effort; pages that yield no title are
// skipped rather than failing the whole fetch.
type ScrapeSource struct {
	sites      map[string][]string
	limiter    *ratelimit.Limiter
	httpClient *http.Client
	logger     logger.Logger
}

var _ Source = (*ScrapeSource)(nil)

func NewScrapeSource(cfg config.ScrapeSourceConfig, limiter *ratelimit.Limiter, log logger.Logger) *ScrapeSource {
	return &ScrapeSource{
		sites:      cfg.Sites,
		limiter:    limiter,
		httpClient: &http.Client{Timeout: scrapeRequestTimeout},
		logger:     log,
	}
}

func (s *ScrapeSource) Name() string {
	return "scrape"
}

func (s *ScrapeSource) Fetch(ctx context.Context, niche string, limit int) ([]domain.Article, error) {
	pages := s.sites[strings.ToLower(niche)]
	if len(pages) == 0 {
		return nil, &SourceError{Source: s.Name(), Err: fmt.Errorf("no sites configured for niche %q", niche)}
	}

	now := time.Now().UTC()
	articles := make([]domain.Article, 0, limit)
	var lastErr error

	for _, page := range pages {
		if len(articles) >= limit {
			break
		}

		if d := s.limiter.Admit(); !d.Allowed {
			if len(articles) > 0 {
				break
			}
			return nil, &ratelimit.DeniedError{Service: s.limiter.Service(), Wait: d.Wait}
		}

		art, err := s.scrapePage(ctx, page, niche, now)
		if err != nil {
			s.logger.Warn("failed to scrape page",
				logger.String("url", page),
				logger.Error(err),
			)
			lastErr = err
			continue
		}
		articles = append(articles, art)
	}

	if len(articles) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no pages yielded content")
		}
		return nil, &SourceError{Source: s.Name(), Err: lastErr}
	}

	s.logger.Info("articles scraped",
		logger.String("niche", niche),
		logger.Int("count", len(articles)),
	)

	return articles, nil
}

func (s *ScrapeSource) scrapePage(ctx context.Context, page, niche string, now time.Time) (domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page, nil)
	if err != nil {
		return domain.Article{}, err
	}
	req.Header.Set("User-Agent", scrapeUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Article{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return domain.Article{}, fmt.Errorf("status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.Article{}, fmt.Errorf("parse html: %w", err)
	}

	var title string
	for _, sel := range titleSelectors {
		title = strings.TrimSpace(doc.Find(sel).First().Text())
		if title != "" {
			break
		}
	}
	if title == "" {
		return domain.Article{}, fmt.Errorf("no title found")
	}

	var paragraphs []string
	for _, sel := range contentSelectors {
		doc.Find(sel).EachWithBreak(func(_ int, p *goquery.Selection) bool {
			text := strings.TrimSpace(p.Text())
			if len(text) >= minParagraphLen {
				paragraphs = append(paragraphs, text)
			}
			return len(paragraphs) < maxParagraphs
		})
		if len(paragraphs) > 0 {
			break
		}
	}

	description, _ := doc.Find(`meta[name="description"]`).Attr("content")
	content := strings.Join(paragraphs, " ")
	if content == "" {
		content = description
	}

	return domain.Article{
		Title:       title,
		Description: description,
		Content:     content,
		URL:         page,
		Source:      hostOf(page),
		PublishedAt: &now,
		FetchedAt:   now,
		Niche:       niche,
	}, nil
}

func hostOf(page string) string {
	u, err := url.Parse(page)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
