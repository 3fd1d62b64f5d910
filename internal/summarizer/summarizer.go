// Package summarizer turns a ranked article into a verified summary via
// an ordered stage pipeline: draft, fact extraction, verification,
// refinement, tone adjustment. Verification flags claims the source text
// does not support; refinement rewrites the draft without them.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/llm"
	"github.com/pulselabs/pulse/internal/logger"
)

// Stage names, in execution order. Draft and fact extraction always run;
// the rest can be skipped by configuration.
const (
	StageDraft  = "draft"
	StageFacts  = "facts"
	StageVerify = "verify"
	StageRefine = "refine"
	StageTone   = "tone"
)

// ErrLowConfidence is returned when the overall summary confidence falls
// below the configured floor. Callers skip the article rather than post
// an unverified summary.
var ErrLowConfidence = errors.New("summary confidence below threshold")

// StageError wraps a failure with the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("summarization stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Options struct {
	// MinFactConfidence flags individual facts below it. Flagged facts
	// are kept for auditing but excluded from the refined summary.
	MinFactConfidence float64
	// MinSummaryConfidence rejects the whole summary below it.
	MinSummaryConfidence float64
	// SkipStages disables optional stages by name: verify, refine, tone.
	// Draft and fact extraction always run, a summary without them has
	// no text and no confidence to act on.
	SkipStages []string
	// MaxTokens per completion request.
	MaxTokens int
}

type Summarizer struct {
	completer  llm.Completer
	minFact    float64
	minSummary float64
	skip       map[string]bool
	maxTokens  int
	logger     logger.Logger
}

func New(completer llm.Completer, opts Options, log logger.Logger) *Summarizer {
	minFact := opts.MinFactConfidence
	if minFact <= 0 {
		minFact = 0.5
	}
	minSummary := opts.MinSummaryConfidence
	if minSummary <= 0 {
		minSummary = 0.3
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	skip := make(map[string]bool, len(opts.SkipStages))
	for _, s := range opts.SkipStages {
		skip[strings.ToLower(strings.TrimSpace(s))] = true
	}

	return &Summarizer{
		completer:  completer,
		minFact:    minFact,
		minSummary: minSummary,
		skip:       skip,
		maxTokens:  maxTokens,
		logger:     log,
	}
}

// Summarize runs the stage pipeline for one article. The returned summary
// carries every extracted fact, flagged or not, and the overall
// confidence; ErrLowConfidence means the article should be skipped.
func (s *Summarizer) Summarize(ctx context.Context, article *domain.Article, tone string) (*domain.Summary, error) {
	draft, err := s.draft(ctx, article)
	if err != nil {
		return nil, &StageError{Stage: StageDraft, Err: err}
	}

	facts, err := s.extractFacts(ctx, draft)
	if err != nil {
		return nil, &StageError{Stage: StageFacts, Err: err}
	}

	if !s.skip[StageVerify] {
		facts = s.verify(facts, article)
	}

	text := draft
	if flagged := flaggedStatements(facts); len(flagged) > 0 && !s.skip[StageRefine] {
		text, err = s.refine(ctx, draft, flagged)
		if err != nil {
			return nil, &StageError{Stage: StageRefine, Err: err}
		}
	}

	if tone != "" && !s.skip[StageTone] {
		text, err = s.adjustTone(ctx, text, tone)
		if err != nil {
			return nil, &StageError{Stage: StageTone, Err: err}
		}
	}

	summary := &domain.Summary{
		ArticleID:  article.ID,
		Text:       text,
		Facts:      facts,
		Confidence: domain.OverallConfidence(facts),
	}

	s.logger.Debug("summary produced",
		logger.String("article_id", article.ID),
		logger.Float64("confidence", summary.Confidence),
		logger.Int("facts", len(facts)),
		logger.Int("flagged", len(flaggedStatements(facts))),
	)

	if summary.Confidence < s.minSummary {
		return summary, fmt.Errorf("confidence %.2f: %w", summary.Confidence, ErrLowConfidence)
	}

	return summary, nil
}

func (s *Summarizer) draft(ctx context.Context, article *domain.Article) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize this article in 2-3 sentences for a social media audience.\n\nTitle: %s\n\n%s",
		article.Title, article.Body(),
	)
	return s.completer.Complete(ctx, llm.Request{
		System:    "You are a concise news editor. Report only what the text states.",
		Prompt:    prompt,
		MaxTokens: s.maxTokens,
	})
}

func (s *Summarizer) extractFacts(ctx context.Context, draft string) ([]domain.Fact, error) {
	prompt := fmt.Sprintf(
		"List every factual claim in this summary, one per line, no numbering:\n\n%s",
		draft,
	)
	out, err := s.completer.Complete(ctx, llm.Request{
		System:    "You extract verifiable claims. Output one claim per line and nothing else.",
		Prompt:    prompt,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	var facts []domain.Fact
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-* "))
		if line == "" {
			continue
		}
		facts = append(facts, domain.Fact{Statement: line, Confidence: 1})
	}
	return facts, nil
}

// verify scores each fact against the source text and flags the ones
// below the per-fact floor. Flagged facts stay in the summary record.
func (s *Summarizer) verify(facts []domain.Fact, article *domain.Article) []domain.Fact {
	source := strings.ToLower(article.Title + " " + article.Body())
	for i := range facts {
		facts[i].Confidence = factConfidence(facts[i].Statement, source)
		facts[i].Flagged = facts[i].Confidence < s.minFact
	}
	return facts
}

func (s *Summarizer) refine(ctx context.Context, draft string, flagged []string) (string, error) {
	prompt := fmt.Sprintf(
		"Rewrite this summary without the unsupported claims listed below. Keep it to 2-3 sentences.\n\nSummary:\n%s\n\nUnsupported claims:\n%s",
		draft, strings.Join(flagged, "\n"),
	)
	return s.completer.Complete(ctx, llm.Request{
		System:    "You are a careful news editor. Remove unsupported claims without adding new ones.",
		Prompt:    prompt,
		MaxTokens: s.maxTokens,
	})
}

func (s *Summarizer) adjustTone(ctx context.Context, text, tone string) (string, error) {
	prompt := fmt.Sprintf(
		"Rewrite this summary in a %s tone. Keep every fact unchanged.\n\n%s",
		tone, text,
	)
	return s.completer.Complete(ctx, llm.Request{
		System:    "You adjust writing style without altering facts.",
		Prompt:    prompt,
		MaxTokens: s.maxTokens,
	})
}

func flaggedStatements(facts []domain.Fact) []string {
	var out []string
	for _, f := range facts {
		if f.Flagged {
			out = append(out, f.Statement)
		}
	}
	return out
}

// factConfidence is a lexical support score: word overlap with the
// source text, a boost when the fact's numbers appear in the source, and
// a penalty for superlatives, which summaries tend to invent.
func factConfidence(statement, source string) float64 {
	conf := 0.5

	words := significantWords(statement)
	if len(words) > 0 {
		supported := 0
		for _, w := range words {
			if strings.Contains(source, w) {
				supported++
			}
		}
		conf += 0.4 * float64(supported) / float64(len(words))
	}

	for _, num := range numbers(statement) {
		if strings.Contains(source, num) {
			conf += 0.1
		} else {
			conf -= 0.2
		}
	}

	for _, sup := range superlatives {
		if strings.Contains(strings.ToLower(statement), sup) {
			conf -= 0.2
			break
		}
	}

	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}

var superlatives = []string{
	"best", "worst", "biggest", "largest", "first ever",
	"unprecedented", "revolutionary", "groundbreaking",
}

func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) > 3 {
			out = append(out, w)
		}
	}
	return out
}

func numbers(s string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
