package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/gtmscore/gtmscore/pkg/models"
)

// Engine computes maturity scores from quiz ratings. It is pure and
// stateless apart from the immutable bundles, so a single instance is safe
// for concurrent use without coordination.
type Engine struct {
	bundles *MetricBundles
}

// ConfigurationError indicates a rating value with no corresponding bundle
// entry. It must be surfaced to the caller as a request-level error rather
// than defaulted, so the service never reports a fabricated score.
type ConfigurationError struct {
	Loop   models.Loop
	Rating int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no metric bundle entry for %s rating %d (expected %d-%d)",
		e.Loop, e.Rating, models.MinRating, models.MaxRating)
}

// scoreTerm is one weighted component of a category score. The term is
// value/benchmark, or 1-value/benchmark for metrics where lower is better.
type scoreTerm struct {
	metric    string
	weight    float64
	benchmark float64
	invert    bool
}

// Per-category coefficient tables. Weights within each category sum to 1.0;
// benchmarks are the "excellent" reference values each metric is measured
// against.
var categoryTerms = map[models.Loop][]scoreTerm{
	models.LoopPipeline: {
		{metric: "lead_velocity_rate", weight: 0.20, benchmark: 15},
		{metric: "mql_to_sql_conversion", weight: 0.20, benchmark: 40},
		{metric: "marketing_contribution_pipeline", weight: 0.15, benchmark: 50},
		{metric: "pipeline_coverage_ratio", weight: 0.20, benchmark: 4},
		{metric: "inbound_lead_volume_growth", weight: 0.10, benchmark: 20},
		{metric: "lead_response_time", weight: 0.15, benchmark: 24, invert: true},
	},
	models.LoopConversion: {
		{metric: "win_rate", weight: 0.25, benchmark: 30},
		{metric: "sales_cycle_length", weight: 0.20, benchmark: 120, invert: true},
		{metric: "sql_acceptance_rate", weight: 0.15, benchmark: 80},
		{metric: "demo_to_proposal_rate", weight: 0.15, benchmark: 60},
		{metric: "proposal_to_won_rate", weight: 0.15, benchmark: 50},
		{metric: "pipeline_conversion_rate", weight: 0.10, benchmark: 25},
	},
	models.LoopExpansion: {
		{metric: "nrr", weight: 0.25, benchmark: 120},
		{metric: "grr", weight: 0.20, benchmark: 95},
		{metric: "churn_rate", weight: 0.20, benchmark: 30, invert: true},
		{metric: "expansion_revenue_growth", weight: 0.15, benchmark: 25},
		{metric: "nps", weight: 0.10, benchmark: 60},
		{metric: "time_to_first_value", weight: 0.10, benchmark: 90, invert: true},
	},
	models.LoopEconomics: {
		{metric: "cac_payback_period", weight: 0.20, benchmark: 36, invert: true},
		{metric: "ltv_cac", weight: 0.20, benchmark: 4},
		{metric: "burn_multiple", weight: 0.15, benchmark: 4, invert: true},
		{metric: "sales_rep_ramp_time", weight: 0.10, benchmark: 9, invert: true},
		{metric: "quota_attainment", weight: 0.15, benchmark: 80},
		{metric: "magic_number", weight: 0.10, benchmark: 1},
		{metric: "rule_of_40", weight: 0.10, benchmark: 40},
	},
}

// Base loop weights for the overall score.
const (
	basePipelineWeight   = 0.30
	baseConversionWeight = 0.30
	baseExpansionWeight  = 0.25
	baseEconomicsWeight  = 0.15

	// challengeBoost is applied to the loop the user named as their top
	// challenge before renormalizing.
	challengeBoost = 1.15
)

// challengeLoops maps recognized top_challenge values to the loop whose
// weight gets boosted. Unrecognized values fall through with no adjustment.
var challengeLoops = map[string]models.Loop{
	"pipeline":   models.LoopPipeline,
	"conversion": models.LoopConversion,
	"retention":  models.LoopExpansion,
}

// NewEngine creates a scoring engine over validated metric bundles.
func NewEngine(bundles *MetricBundles) *Engine {
	return &Engine{bundles: bundles}
}

// ComputeScores runs the full scoring pipeline: per-category weighted
// scores, challenge-adjusted overall score, priority metric ranking and
// pattern detection. It returns a ConfigurationError if any rating has no
// bundle entry.
func (e *Engine) ComputeScores(req models.AssessmentRequest) (*models.ScoreResult, error) {
	ratings := map[models.Loop]int{
		models.LoopPipeline:   req.PipelineRating,
		models.LoopConversion: req.ConversionRating,
		models.LoopExpansion:  req.ExpansionRating,
		models.LoopEconomics:  req.EconomicsRating,
	}

	// Category scores are intentionally not clamped here; only the values
	// returned to the caller are. See the clamp on loop scores and the
	// overall score below.
	scores := make(map[models.Loop]float64, len(ratings))
	for loop, rating := range ratings {
		score, err := e.categoryScore(loop, rating)
		if err != nil {
			return nil, err
		}
		scores[loop] = score
	}

	weights := adjustWeights(req.TopChallenge)

	overall := scores[models.LoopPipeline]*weights[models.LoopPipeline] +
		scores[models.LoopConversion]*weights[models.LoopConversion] +
		scores[models.LoopExpansion]*weights[models.LoopExpansion] +
		scores[models.LoopEconomics]*weights[models.LoopEconomics]

	recommendations, err := e.rankPriorities(ratings)
	if err != nil {
		return nil, err
	}

	return &models.ScoreResult{
		OverallScore: clamp01(overall),
		LoopScores: models.LoopScores{
			Pipeline:   clamp01(scores[models.LoopPipeline]),
			Conversion: clamp01(scores[models.LoopConversion]),
			Expansion:  clamp01(scores[models.LoopExpansion]),
		},
		PriorityRecommendations: recommendations,
		DetectedPatterns: detectPatterns(req.PipelineRating, req.ConversionRating,
			req.ExpansionRating, req.EconomicsRating),
	}, nil
}

// categoryScore computes the weighted linear combination for one category
// at the given rating. A rating with no bundle entry fails fast.
func (e *Engine) categoryScore(loop models.Loop, rating int) (float64, error) {
	values, err := e.metricValues(loop, rating)
	if err != nil {
		return 0, err
	}

	score := 0.0
	for _, term := range categoryTerms[loop] {
		ratio := values[term.metric] / term.benchmark
		if term.invert {
			ratio = 1 - ratio
		}
		score += term.weight * ratio
	}
	return score, nil
}

func (e *Engine) metricValues(loop models.Loop, rating int) (MetricValues, error) {
	values, ok := e.bundles.bundle(loop)[strconv.Itoa(rating)]
	if !ok {
		return nil, &ConfigurationError{Loop: loop, Rating: rating}
	}
	return values, nil
}

// adjustWeights starts from the base distribution, boosts the loop matching
// the top challenge and renormalizes so the weights sum to exactly 1.
func adjustWeights(topChallenge string) map[models.Loop]float64 {
	weights := map[models.Loop]float64{
		models.LoopPipeline:   basePipelineWeight,
		models.LoopConversion: baseConversionWeight,
		models.LoopExpansion:  baseExpansionWeight,
		models.LoopEconomics:  baseEconomicsWeight,
	}

	loop, ok := challengeLoops[topChallenge]
	if !ok {
		return weights
	}

	weights[loop] *= challengeBoost

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	for l := range weights {
		weights[l] /= sum
	}
	return weights
}

// priorityOrder fixes the nine ranked metrics and their list order, which
// doubles as the tie-break order for equal normalized scores.
var priorityOrder = []priorityMetric{
	{metric: "lead_velocity_rate", display: "Lead Velocity Rate", loop: models.LoopPipeline, benchmark: 15, format: formatPercent},
	{metric: "mql_to_sql_conversion", display: "MQL to SQL Conversion", loop: models.LoopPipeline, benchmark: 40, format: formatPercent},
	{metric: "pipeline_coverage_ratio", display: "Pipeline Coverage Ratio", loop: models.LoopPipeline, benchmark: 4, format: formatRatio},
	{metric: "win_rate", display: "Win Rate", loop: models.LoopConversion, benchmark: 30, format: formatPercent},
	{metric: "sales_cycle_length", display: "Sales Cycle Length", loop: models.LoopConversion, benchmark: 120, invert: true, format: formatDays},
	{metric: "nrr", display: "Net Revenue Retention", loop: models.LoopExpansion, benchmark: 120, format: formatPercent},
	{metric: "churn_rate", display: "Churn Rate", loop: models.LoopExpansion, benchmark: 30, invert: true, format: formatPercent},
	{metric: "cac_payback_period", display: "CAC Payback Period", loop: models.LoopEconomics, benchmark: 36, invert: true, format: formatMonths},
	{metric: "ltv_cac", display: "LTV:CAC Ratio", loop: models.LoopEconomics, benchmark: 4, format: formatRatio},
}

type priorityMetric struct {
	metric    string
	display   string
	loop      models.Loop
	benchmark float64
	invert    bool
	format    formatKind
}

// rankPriorities scores the nine fixed metrics, stable-sorts ascending so
// the worst performers come first, and keeps the top five.
func (e *Engine) rankPriorities(ratings map[models.Loop]int) ([]models.PriorityRecommendation, error) {
	ranked := make([]models.PriorityRecommendation, 0, len(priorityOrder))
	for _, pm := range priorityOrder {
		values, err := e.metricValues(pm.loop, ratings[pm.loop])
		if err != nil {
			return nil, err
		}
		raw := values[pm.metric]

		ratio := raw / pm.benchmark
		if pm.invert {
			ratio = 1 - ratio
		}

		ranked = append(ranked, models.PriorityRecommendation{
			Name:            pm.display,
			Loop:            pm.loop,
			NormalizedScore: normalizedScore(ratio),
			RawValue:        raw,
			FormattedValue:  formatValue(pm.format, raw),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NormalizedScore < ranked[j].NormalizedScore
	})

	return ranked[:5], nil
}

// normalizedScore scales a ratio to the 0-100 integer scale.
func normalizedScore(ratio float64) int {
	score := int(math.Round(ratio * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
