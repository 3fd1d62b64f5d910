package domain

// Fact is one atomic factual claim extracted from a draft summary,
// with a verification confidence in [0,1]. Claims below the configured
// confidence floor are flagged but retained.
type Fact struct {
	Statement  string  `json:"statement"`
	Confidence float64 `json:"confidence"`
	Flagged    bool    `json:"flagged,omitempty"`
}

// Summary is the verified summary of exactly one article. Immutable once
// the job that produced it completes.
type Summary struct {
	ArticleID  string  `json:"article_id"`
	Text       string  `json:"text"`
	Facts      []Fact  `json:"facts"`
	Confidence float64 `json:"confidence"`
}

// OverallConfidence returns the mean of per-fact confidences, 0 when no
// facts were extracted. It can never exceed the maximum fact confidence.
func OverallConfidence(facts []Fact) float64 {
	if len(facts) == 0 {
		return 0
	}
	var sum float64
	for _, f := range facts {
		sum += f.Confidence
	}
	return sum / float64(len(facts))
}
