// Package variant generates post variants from a summary and selects one
// to publish, weighting strategies by their observed engagement.
package variant

import (
	"strings"
	"unicode"

	"github.com/pulselabs/pulse/internal/domain"
)

// Generate produces one variant per strategy. Transforms are
// deterministic and only decorate the summary; the factual text is never
// altered.
func Generate(summary *domain.Summary, article *domain.Article) []domain.Variant {
	strategies := domain.Strategies()
	variants := make([]domain.Variant, 0, len(strategies))
	for _, s := range strategies {
		variants = append(variants, domain.Variant{
			Strategy: s,
			Content:  apply(s, summary.Text, article),
		})
	}
	return variants
}

func apply(strategy domain.Strategy, text string, article *domain.Article) string {
	switch strategy {
	case domain.StrategyCasualTone:
		return "Heads up: " + lowerFirst(text)
	case domain.StrategyFormalTone:
		return text
	case domain.StrategyQuestionHook:
		return "Have you seen this? " + text
	case domain.StrategyStatisticLead:
		if num := firstNumber(text); num != "" {
			return "By the numbers (" + num + "): " + text
		}
		return text
	case domain.StrategyStoryOpening:
		return "Here's what happened at " + article.Source + ": " + text
	default:
		return text
	}
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	// leave acronyms like "NASA confirmed..." alone
	if len(r) > 1 && unicode.IsUpper(r[0]) && unicode.IsUpper(r[1]) {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func firstNumber(s string) string {
	start := -1
	for i, r := range s {
		isDigit := r >= '0' && r <= '9'
		if isDigit && start < 0 {
			start = i
		}
		if !isDigit && r != '.' && r != ',' && r != '%' && start >= 0 {
			return strings.Trim(s[start:i], ".,")
		}
	}
	if start >= 0 {
		return strings.Trim(s[start:], ".,")
	}
	return ""
}
