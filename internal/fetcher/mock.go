package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pulselabs/pulse/internal/domain"
)

// MockSource returns deterministic fixtures and is only wired into the
// chain under an explicit test configuration (sources.enable_mock).
type MockSource struct {
	now func() time.Time
}

var _ Source = (*MockSource)(nil)

func NewMockSource() *MockSource {
	return &MockSource{now: time.Now}
}

func (m *MockSource) Name() string {
	return "mock"
}

type mockFixture struct {
	title       string
	description string
	content     string
	source      string
	author      string
	ageHours    int
	keywords    []string
}

var mockFixtures = []mockFixture{
	{
		title:       "AI Breakthrough: New Model Achieves Human-Level Performance",
		description: "Researchers announce significant advancement in artificial intelligence capabilities with new transformer architecture.",
		content:     "A team of researchers has developed a revolutionary AI model that demonstrates human-level performance across multiple cognitive tasks.",
		source:      "Tech News Daily",
		author:      "Dr. Jane Smith",
		ageHours:    0,
		keywords:    []string{"ai", "tech", "model"},
	},
	{
		title:       "Cybersecurity Alert: New Vulnerability Discovered in Popular Software",
		description: "Security researchers identify critical vulnerability affecting millions of users worldwide.",
		content:     "A critical security vulnerability has been discovered in widely-used software, prompting urgent updates from developers.",
		source:      "Security Weekly",
		author:      "John Doe",
		ageHours:    2,
		keywords:    []string{"security", "vulnerability", "cybersecurity", "tech"},
	},
	{
		title:       "Green Technology Investment Reaches Record High",
		description: "Sustainable technology sector attracts unprecedented funding as climate concerns drive innovation.",
		content:     "Investment in green technology has reached a record high this quarter, with renewable energy leading the way.",
		source:      "Business Today",
		author:      "Sarah Johnson",
		ageHours:    4,
		keywords:    []string{"investment", "business", "climate", "tech"},
	},
	{
		title:       "Quantum Computing Milestone: 1000-Qubit Processor Unveiled",
		description: "Major tech company reveals breakthrough quantum processor with unprecedented computational power.",
		content:     "A leading technology company has unveiled a quantum processor with over 1000 qubits, marking a milestone in quantum computing.",
		source:      "Science & Tech Journal",
		author:      "Dr. Michael Chen",
		ageHours:    6,
		keywords:    []string{"quantum", "science", "tech", "research"},
	},
	{
		title:       "Digital Health Platform Revolutionizes Patient Care",
		description: "New telemedicine platform integrates AI diagnostics with remote monitoring capabilities.",
		content:     "A digital health platform is transforming patient care by combining AI diagnostics with comprehensive remote monitoring.",
		source:      "Health Tech News",
		author:      "Dr. Emily Brown",
		ageHours:    8,
		keywords:    []string{"health", "medical", "patient", "ai"},
	},
}

var mockNicheKeywords = map[string][]string{
	"technology":              {"ai", "tech", "quantum", "model"},
	"artificial intelligence": {"ai", "model"},
	"cybersecurity":           {"security", "vulnerability", "cybersecurity"},
	"business":                {"investment", "business"},
	"health":                  {"health", "medical", "patient"},
	"science":                 {"research", "quantum", "science"},
}

func (m *MockSource) Fetch(_ context.Context, niche string, limit int) ([]domain.Article, error) {
	keywords, ok := mockNicheKeywords[strings.ToLower(niche)]
	if !ok {
		keywords = []string{strings.ToLower(niche)}
	}

	now := m.now().UTC()
	var articles []domain.Article
	for i, fx := range mockFixtures {
		if len(articles) >= limit {
			break
		}
		if !matchesAny(fx.keywords, keywords) {
			continue
		}

		published := now.Add(-time.Duration(fx.ageHours) * time.Hour)
		articles = append(articles, domain.Article{
			Title:       fx.title,
			Description: fx.description,
			Content:     fx.content,
			URL:         fmt.Sprintf("https://mock-news.example.com/%s-%d", strings.ReplaceAll(strings.ToLower(niche), " ", "-"), i),
			Source:      fx.source,
			Author:      fx.author,
			PublishedAt: &published,
			FetchedAt:   now,
			Niche:       niche,
		})
	}

	return articles, nil
}

func matchesAny(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
