// Package ranker scores articles on relevance, freshness, authority and
// engagement signals, and selects the top candidates for summarization.
package ranker

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/logger"
)

// Component weights of the composite score.
const (
	relevanceWeight  = 0.4
	freshnessWeight  = 0.3
	authorityWeight  = 0.2
	engagementWeight = 0.1
)

// Unknown sources score a neutral authority.
const defaultAuthority = 0.5

// Ranker computes composite scores. Scoring is pure: the same inputs and
// reference time always produce the same ordering.
type Ranker struct {
	halfLife  time.Duration
	maxAge    time.Duration
	authority map[string]float64
	keywords  map[string][]string
	logger    logger.Logger
	now       func() time.Time
}

type Options struct {
	// HalfLifeHours controls freshness decay; 24 means an article loses
	// roughly 63% of its freshness per day.
	HalfLifeHours float64
	// MaxAgeHours is the hard ceiling past which freshness is zero.
	MaxAgeHours float64
	// Authority maps source names to editorial weight in [0,1].
	Authority map[string]float64
}

func New(opts Options, log logger.Logger) *Ranker {
	halfLife := opts.HalfLifeHours
	if halfLife <= 0 {
		halfLife = 24
	}
	maxAge := opts.MaxAgeHours
	if maxAge <= 0 {
		maxAge = 168
	}

	return &Ranker{
		halfLife:  time.Duration(halfLife * float64(time.Hour)),
		maxAge:    time.Duration(maxAge * float64(time.Hour)),
		authority: opts.Authority,
		keywords:  nicheKeywords,
		logger:    log,
		now:       time.Now,
	}
}

// Rank scores every article for the niche and returns them best first.
// Ties break toward the newer article, then source name ascending, so
// the ordering is total and stable across runs.
func (r *Ranker) Rank(articles []domain.Article, niche string) []domain.RankedArticle {
	now := r.now()

	ranked := make([]domain.RankedArticle, 0, len(articles))
	for i := range articles {
		ranked = append(ranked, r.score(&articles[i], niche, now))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		pi, pj := publishedOrFetched(&ranked[i].Article), publishedOrFetched(&ranked[j].Article)
		if !pi.Equal(pj) {
			return pi.After(pj)
		}
		return ranked[i].Article.Source < ranked[j].Article.Source
	})

	return ranked
}

// Top returns the n best articles for the niche.
func (r *Ranker) Top(articles []domain.Article, niche string, n int) []domain.RankedArticle {
	ranked := r.Rank(articles, niche)
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

func (r *Ranker) score(a *domain.Article, niche string, now time.Time) domain.RankedArticle {
	relevance := r.relevance(a, niche)
	freshness := r.freshness(a, now)
	authority := r.sourceAuthority(a.Source)
	engagement := engagementSignal(a)

	score := relevanceWeight*relevance +
		freshnessWeight*freshness +
		authorityWeight*authority +
		engagementWeight*engagement

	r.logger.Debug("article scored",
		logger.String("url", a.URL),
		logger.Float64("score", score),
		logger.Float64("relevance", relevance),
		logger.Float64("freshness", freshness),
		logger.Float64("authority", authority),
		logger.Float64("engagement", engagement),
	)

	return domain.RankedArticle{
		Article:    *a,
		Score:      score,
		Relevance:  relevance,
		Freshness:  freshness,
		Authority:  authority,
		Engagement: engagement,
	}
}

// relevance is keyword overlap between the niche vocabulary and the
// article text. Title hits count double.
func (r *Ranker) relevance(a *domain.Article, niche string) float64 {
	words := r.keywords[strings.ToLower(niche)]
	if len(words) == 0 {
		return 0.5
	}

	title := strings.ToLower(a.Title)
	body := strings.ToLower(a.Body())

	hits := 0.0
	for _, w := range words {
		if strings.Contains(title, w) {
			hits += 2
		} else if strings.Contains(body, w) {
			hits++
		}
	}

	return math.Min(1, hits/float64(len(words)))
}

// freshness decays exponentially with age and drops to zero past the
// max-age ceiling. Articles without a published time fall back to the
// fetch time.
func (r *Ranker) freshness(a *domain.Article, now time.Time) float64 {
	age := now.Sub(publishedOrFetched(a))
	if age < 0 {
		age = 0
	}
	if age >= r.maxAge {
		return 0
	}
	return math.Exp(-age.Hours() / r.halfLife.Hours())
}

func (r *Ranker) sourceAuthority(source string) float64 {
	if v, ok := r.authority[strings.ToLower(source)]; ok {
		return v
	}
	return defaultAuthority
}

// engagementSignal is a weak prior from content shape; real engagement
// only exists after posting, so longer reported pieces with named
// authors rank slightly ahead.
func engagementSignal(a *domain.Article) float64 {
	signal := 0.3
	if len(a.Body()) > 500 {
		signal += 0.3
	}
	if a.Author != "" {
		signal += 0.2
	}
	return math.Min(1, signal)
}

func publishedOrFetched(a *domain.Article) time.Time {
	if a.PublishedAt != nil {
		return *a.PublishedAt
	}
	return a.FetchedAt
}

var nicheKeywords = map[string][]string{
	"technology": {"ai", "software", "startup", "tech", "chip", "cloud", "robot", "quantum"},
	"business":   {"market", "economy", "earnings", "investment", "merger", "startup", "revenue"},
	"science":    {"research", "study", "discovery", "climate", "space", "biology", "physics"},
	"health":     {"health", "medical", "treatment", "vaccine", "disease", "clinical", "drug"},
	"finance":    {"stock", "bond", "crypto", "inflation", "bank", "fund", "rate"},
}
