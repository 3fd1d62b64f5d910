package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulselabs/pulse/internal/domain"
	"github.com/pulselabs/pulse/internal/llm"
	"github.com/pulselabs/pulse/internal/logger"
)

// scriptedCompleter replies by matching a substring of the prompt, so a
// test can script each pipeline stage independently.
type scriptedCompleter struct {
	replies map[string]string
	errOn   string
	prompts []string
}

func (c *scriptedCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	c.prompts = append(c.prompts, req.Prompt)
	if c.errOn != "" && strings.Contains(req.Prompt, c.errOn) {
		return "", errors.New("api unavailable")
	}
	for marker, reply := range c.replies {
		if strings.Contains(req.Prompt, marker) {
			return reply, nil
		}
	}
	return "generic completion", nil
}

func testArticle() *domain.Article {
	return &domain.Article{
		ID:      "art-1",
		Title:   "Acme ships new solar panel",
		Content: "Acme announced a solar panel with 30 percent efficiency. Production starts in June at the Nevada plant.",
	}
}

func TestSummarizeHappyPath(t *testing.T) {
	c := &scriptedCompleter{replies: map[string]string{
		"Summarize this article": "Acme announced a solar panel with 30 percent efficiency. Production starts in June.",
		"factual claim":          "Acme announced a solar panel with 30 percent efficiency\nProduction starts in June at the Nevada plant",
		"tone":                   "Big news: Acme's new solar panel hits 30 percent efficiency, shipping from Nevada in June.",
	}}

	s := New(c, Options{}, logger.NewNopLogger())
	summary, err := s.Summarize(context.Background(), testArticle(), "casual")
	require.NoError(t, err)

	assert.Contains(t, summary.Text, "Big news")
	require.Len(t, summary.Facts, 2)
	for _, f := range summary.Facts {
		assert.False(t, f.Flagged)
		assert.GreaterOrEqual(t, f.Confidence, 0.5)
	}
	assert.Greater(t, summary.Confidence, 0.5)
	assert.Equal(t, "art-1", summary.ArticleID)
}

func TestSummarizeFlagsUnsupportedFactAndRefines(t *testing.T) {
	c := &scriptedCompleter{replies: map[string]string{
		"Summarize this article": "Acme announced a solar panel. It is the best panel ever made with 99 percent efficiency.",
		"factual claim":          "Acme announced a solar panel\nIt is the best panel ever made with 99 percent efficiency",
		"unsupported claims":     "Acme announced a new solar panel with production starting in June.",
	}}

	s := New(c, Options{SkipStages: []string{StageTone}}, logger.NewNopLogger())
	summary, err := s.Summarize(context.Background(), testArticle(), "professional")
	require.NoError(t, err)

	require.Len(t, summary.Facts, 2)
	assert.False(t, summary.Facts[0].Flagged)
	assert.True(t, summary.Facts[1].Flagged, "superlative with wrong number should be flagged")
	assert.NotContains(t, summary.Text, "best panel ever")
}

func TestSummarizeLowConfidence(t *testing.T) {
	c := &scriptedCompleter{replies: map[string]string{
		"Summarize this article": "Martian colonists vote on independence next week.",
		"factual claim":          "Martian colonists vote on independence next 3099 week",
		"unsupported claims":     "A vote is planned.",
	}}

	s := New(c, Options{MinSummaryConfidence: 0.45, SkipStages: []string{StageTone}}, logger.NewNopLogger())
	summary, err := s.Summarize(context.Background(), testArticle(), "")
	require.ErrorIs(t, err, ErrLowConfidence)
	require.NotNil(t, summary, "rejected summary is still returned for auditing")
	assert.Less(t, summary.Confidence, 0.45)
}

func TestSummarizeNoFactsIsZeroConfidence(t *testing.T) {
	c := &scriptedCompleter{replies: map[string]string{
		"Summarize this article": "Something happened.",
		"factual claim":          "",
	}}

	// MockCompleter never returns empty, but a real model can
	s := New(&emptyFactsCompleter{inner: c}, Options{}, logger.NewNopLogger())
	summary, err := s.Summarize(context.Background(), testArticle(), "")
	require.ErrorIs(t, err, ErrLowConfidence)
	assert.Zero(t, summary.Confidence)
	assert.Empty(t, summary.Facts)
}

type emptyFactsCompleter struct{ inner *scriptedCompleter }

func (c *emptyFactsCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	if strings.Contains(req.Prompt, "factual claim") {
		return "\n\n", nil
	}
	return c.inner.Complete(ctx, req)
}

func TestSummarizeStageErrorIsWrapped(t *testing.T) {
	c := &scriptedCompleter{errOn: "factual claim"}

	s := New(c, Options{}, logger.NewNopLogger())
	_, err := s.Summarize(context.Background(), testArticle(), "")
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageFacts, stageErr.Stage)
}

func TestSkipStages(t *testing.T) {
	c := &scriptedCompleter{replies: map[string]string{
		"Summarize this article": "Acme announced a solar panel with 30 percent efficiency.",
		"factual claim":          "Acme announced a solar panel with 30 percent efficiency",
	}}

	s := New(c, Options{SkipStages: []string{StageVerify, StageTone}}, logger.NewNopLogger())
	summary, err := s.Summarize(context.Background(), testArticle(), "casual")
	require.NoError(t, err)

	// verification skipped: extraction confidence stands
	require.Len(t, summary.Facts, 1)
	assert.Equal(t, 1.0, summary.Facts[0].Confidence)
	assert.Equal(t, 1.0, summary.Confidence)

	for _, p := range c.prompts {
		assert.NotContains(t, p, "tone")
	}
}

func TestFactConfidenceHeuristics(t *testing.T) {
	source := "acme announced a solar panel with 30 percent efficiency. production starts in june."

	supported := factConfidence("Acme announced a solar panel with 30 percent efficiency", source)
	invented := factConfidence("The groundbreaking panel reaches 99 percent efficiency", source)

	assert.Greater(t, supported, 0.8)
	assert.Less(t, invented, 0.5)

	// a matching number raises confidence over the same claim without it
	withNum := factConfidence("Panel efficiency is 30 percent", source)
	wrongNum := factConfidence("Panel efficiency is 45 percent", source)
	assert.Greater(t, withNum, wrongNum)
}
