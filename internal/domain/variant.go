package domain

// Strategy names a variant generation strategy.
type Strategy string

const (
	StrategyCasualTone    Strategy = "casual_tone"
	StrategyFormalTone    Strategy = "formal_tone"
	StrategyQuestionHook  Strategy = "question_hook"
	StrategyStatisticLead Strategy = "statistic_lead"
	StrategyStoryOpening  Strategy = "story_opening"
)

// Strategies lists every variant strategy in generation order.
func Strategies() []Strategy {
	return []Strategy{
		StrategyCasualTone,
		StrategyFormalTone,
		StrategyQuestionHook,
		StrategyStatisticLead,
		StrategyStoryOpening,
	}
}

// Variant is one phrasing of a summary produced for selection before
// posting. Variants are ephemeral per job; only the selected one is
// promoted to a Post. Counters reflect externally observed performance.
type Variant struct {
	Content     string   `json:"content"`
	Strategy    Strategy `json:"strategy"`
	Weight      float64  `json:"weight"`
	Impressions int64    `json:"impressions"`
	Engagement  int64    `json:"engagement"`
}
