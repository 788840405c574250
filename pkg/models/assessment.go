package models

// Loop identifies one of the scored go-to-market loops. Economics is a
// scoring category folded into the overall score but is not exposed as a
// standalone loop score.
type Loop string

const (
	LoopPipeline   Loop = "pipeline"
	LoopConversion Loop = "conversion"
	LoopExpansion  Loop = "expansion"
	LoopEconomics  Loop = "economics"
)

// Rating bounds for the Likert inputs.
const (
	MinRating = 1
	MaxRating = 5

	// DefaultRating is substituted at the API boundary when a rating field
	// is missing or unparseable. The engine itself never defaults.
	DefaultRating = 3
)

// AssessmentRequest carries the raw quiz answers fed into the scoring engine.
type AssessmentRequest struct {
	PipelineRating   int    `json:"pipeline_rating"`
	ConversionRating int    `json:"conversion_rating"`
	ExpansionRating  int    `json:"expansion_rating"`
	EconomicsRating  int    `json:"economics_rating"`
	TopChallenge     string `json:"top_challenge"`
}

// LoopScores holds the three normalized loop health scores, each in [0,1].
type LoopScores struct {
	Pipeline   float64 `json:"pipeline"`
	Conversion float64 `json:"conversion"`
	Expansion  float64 `json:"expansion"`
}

// PriorityRecommendation is one of the weakest metrics selected for the
// caller to act on first. NormalizedScore is 0-100, lower is worse.
type PriorityRecommendation struct {
	Name            string  `json:"name"`
	Loop            Loop    `json:"loop"`
	NormalizedScore int     `json:"normalized_score"`
	RawValue        float64 `json:"raw_value"`
	FormattedValue  string  `json:"formatted_value"`
}

// PatternPriority ranks detected patterns for presentation.
type PatternPriority string

const (
	PatternPriorityCritical PatternPriority = "critical"
	PatternPriorityHigh     PatternPriority = "high"
	PatternPriorityMedium   PatternPriority = "medium"
)

// DetectedPattern is a qualitative flag derived from the raw rating
// combination, independent of the numeric scores.
type DetectedPattern struct {
	PatternID   string          `json:"pattern_id"`
	Description string          `json:"description"`
	Priority    PatternPriority `json:"priority"`
}

// ScoreResult is the complete output of one scoring run. Consumers only
// format it; they never modify it.
type ScoreResult struct {
	OverallScore            float64                  `json:"overall_score"`
	LoopScores              LoopScores               `json:"loop_scores"`
	PriorityRecommendations []PriorityRecommendation `json:"priority_recommendations"`
	DetectedPatterns        []DetectedPattern        `json:"detected_patterns"`
}
