package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtmscore/gtmscore/pkg/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	bundles := DefaultBundles()
	require.NoError(t, bundles.Validate())
	return NewEngine(bundles)
}

// TestCategoryWeightsSumToOne guards the coefficient tables: the weights
// within every category must sum to exactly 1.
func TestCategoryWeightsSumToOne(t *testing.T) {
	for loop, terms := range categoryTerms {
		sum := 0.0
		for _, term := range terms {
			sum += term.weight
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "category %s", loop)
	}
}

// TestScoresAlwaysClamped exercises every rating combination against every
// challenge value and checks the clamping invariant plus the shape of the
// recommendation list.
func TestScoresAlwaysClamped(t *testing.T) {
	engine := newTestEngine(t)
	challenges := []string{"", "pipeline", "conversion", "retention", "other", "unknown-value"}

	for p := 1; p <= 5; p++ {
		for c := 1; c <= 5; c++ {
			for x := 1; x <= 5; x++ {
				for e := 1; e <= 5; e++ {
					for _, challenge := range challenges {
						result, err := engine.ComputeScores(models.AssessmentRequest{
							PipelineRating:   p,
							ConversionRating: c,
							ExpansionRating:  x,
							EconomicsRating:  e,
							TopChallenge:     challenge,
						})
						require.NoError(t, err)

						assert.GreaterOrEqual(t, result.OverallScore, 0.0)
						assert.LessOrEqual(t, result.OverallScore, 1.0)
						for _, score := range []float64{
							result.LoopScores.Pipeline,
							result.LoopScores.Conversion,
							result.LoopScores.Expansion,
						} {
							assert.GreaterOrEqual(t, score, 0.0)
							assert.LessOrEqual(t, score, 1.0)
						}

						require.Len(t, result.PriorityRecommendations, 5)
						for i := 1; i < len(result.PriorityRecommendations); i++ {
							assert.LessOrEqual(t,
								result.PriorityRecommendations[i-1].NormalizedScore,
								result.PriorityRecommendations[i].NormalizedScore)
						}
					}
				}
			}
		}
	}
}

// TestAdjustedWeightsSumToOne checks the reweighting invariant for every
// challenge value, recognized or not.
func TestAdjustedWeightsSumToOne(t *testing.T) {
	for _, challenge := range []string{"", "pipeline", "conversion", "retention", "economics", "something-else"} {
		weights := adjustWeights(challenge)
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "challenge %q", challenge)
	}
}

// TestChallengeBoostMonotonicity: naming a loop as the top challenge must
// strictly increase its effective weight over an unrecognized challenge.
func TestChallengeBoostMonotonicity(t *testing.T) {
	base := adjustWeights("other")
	boosted := adjustWeights("pipeline")
	assert.Greater(t, boosted[models.LoopPipeline], base[models.LoopPipeline])

	retention := adjustWeights("retention")
	assert.Greater(t, retention[models.LoopExpansion], base[models.LoopExpansion])
}

// TestPriorityRankingBaseline pins the ranking for the all-threes baseline,
// including the stable tie-break between Lead Velocity Rate and Churn Rate
// which both normalize to 53.
func TestPriorityRankingBaseline(t *testing.T) {
	engine := newTestEngine(t)
	result, err := engine.ComputeScores(models.AssessmentRequest{
		PipelineRating:   3,
		ConversionRating: 3,
		ExpansionRating:  3,
		EconomicsRating:  3,
	})
	require.NoError(t, err)

	require.Len(t, result.PriorityRecommendations, 5)

	expected := []struct {
		name      string
		loop      models.Loop
		score     int
		formatted string
	}{
		{"Sales Cycle Length", models.LoopConversion, 29, "85 days"},
		{"CAC Payback Period", models.LoopEconomics, 39, "22 months"},
		{"Lead Velocity Rate", models.LoopPipeline, 53, "8%"},
		{"Churn Rate", models.LoopExpansion, 53, "14%"},
		{"MQL to SQL Conversion", models.LoopPipeline, 63, "25%"},
	}
	for i, want := range expected {
		got := result.PriorityRecommendations[i]
		assert.Equal(t, want.name, got.Name, "position %d", i)
		assert.Equal(t, want.loop, got.Loop, "position %d", i)
		assert.Equal(t, want.score, got.NormalizedScore, "position %d", i)
		assert.Equal(t, want.formatted, got.FormattedValue, "position %d", i)
	}
}

// TestBaselineScores pins the derived scores for the all-threes baseline.
func TestBaselineScores(t *testing.T) {
	engine := newTestEngine(t)
	result, err := engine.ComputeScores(models.AssessmentRequest{
		PipelineRating:   3,
		ConversionRating: 3,
		ExpansionRating:  3,
		EconomicsRating:  3,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.6379, result.OverallScore, 1e-3)
	assert.InDelta(t, 0.6592, result.LoopScores.Pipeline, 1e-3)
	assert.InDelta(t, 0.6053, result.LoopScores.Conversion, 1e-3)
	assert.InDelta(t, 0.6926, result.LoopScores.Expansion, 1e-3)
	assert.Empty(t, result.DetectedPatterns)
}

// TestBoundaryScores checks the documented minimum and maximum bounds for
// the default tables.
func TestBoundaryScores(t *testing.T) {
	engine := newTestEngine(t)

	low, err := engine.ComputeScores(models.AssessmentRequest{
		PipelineRating: 1, ConversionRating: 1, ExpansionRating: 1, EconomicsRating: 1,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.2131, low.OverallScore, 1e-3)

	high, err := engine.ComputeScores(models.AssessmentRequest{
		PipelineRating: 5, ConversionRating: 5, ExpansionRating: 5, EconomicsRating: 5,
	})
	require.NoError(t, err)
	// The unweighted sum exceeds 1 for the top ratings; the clamp holds it.
	assert.Equal(t, 1.0, high.OverallScore)
	assert.Equal(t, 1.0, high.LoopScores.Pipeline)
}

// TestIdempotence: two runs over identical inputs and tables must produce
// identical output.
func TestIdempotence(t *testing.T) {
	engine := newTestEngine(t)
	req := models.AssessmentRequest{
		PipelineRating:   4,
		ConversionRating: 2,
		ExpansionRating:  5,
		EconomicsRating:  1,
		TopChallenge:     "retention",
	}

	first, err := engine.ComputeScores(req)
	require.NoError(t, err)
	second, err := engine.ComputeScores(req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestOutOfRangeRatingFailsFast: ratings outside 1-5 must surface a
// ConfigurationError, never a fabricated score.
func TestOutOfRangeRatingFailsFast(t *testing.T) {
	engine := newTestEngine(t)

	for _, rating := range []int{0, 6, -1, 42} {
		_, err := engine.ComputeScores(models.AssessmentRequest{
			PipelineRating:   rating,
			ConversionRating: 3,
			ExpansionRating:  3,
			EconomicsRating:  3,
		})
		require.Error(t, err, "rating %d", rating)

		var confErr *ConfigurationError
		require.ErrorAs(t, err, &confErr)
		assert.Equal(t, models.LoopPipeline, confErr.Loop)
		assert.Equal(t, rating, confErr.Rating)
	}
}

func TestPatternScenarios(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name      string
		ratings   [4]int // pipeline, conversion, expansion, economics
		challenge string
		want      []string
		dontWant  []string
	}{
		{
			name:      "pipeline conversion gap",
			ratings:   [4]int{4, 2, 3, 3},
			challenge: "conversion",
			want:      []string{"pipeline_conversion_gap"},
			dontWant:  []string{"leaky_bucket", "systematic_issues", "scaling_inefficiency"},
		},
		{
			name:     "systematic issues across the board",
			ratings:  [4]int{2, 2, 2, 2},
			want:     []string{"systematic_issues"},
			dontWant: []string{"pipeline_conversion_gap", "leaky_bucket"},
		},
		{
			name:     "leaky bucket",
			ratings:  [4]int{3, 5, 1, 3},
			want:     []string{"leaky_bucket"},
			dontWant: []string{"pipeline_conversion_gap"},
		},
		{
			name:     "scaling inefficiency",
			ratings:  [4]int{5, 3, 3, 1},
			want:     []string{"scaling_inefficiency"},
			dontWant: []string{"systematic_issues"},
		},
		{
			name:     "multiple patterns fire in rule order",
			ratings:  [4]int{4, 2, 3, 2},
			want:     []string{"pipeline_conversion_gap", "scaling_inefficiency"},
			dontWant: []string{"leaky_bucket"},
		},
		{
			name:     "baseline is quiet",
			ratings:  [4]int{3, 3, 3, 3},
			dontWant: []string{"pipeline_conversion_gap", "leaky_bucket", "systematic_issues", "scaling_inefficiency"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.ComputeScores(models.AssessmentRequest{
				PipelineRating:   tt.ratings[0],
				ConversionRating: tt.ratings[1],
				ExpansionRating:  tt.ratings[2],
				EconomicsRating:  tt.ratings[3],
				TopChallenge:     tt.challenge,
			})
			require.NoError(t, err)

			ids := make([]string, 0, len(result.DetectedPatterns))
			for _, p := range result.DetectedPatterns {
				ids = append(ids, p.PatternID)
			}

			for _, id := range tt.want {
				assert.Contains(t, ids, id)
			}
			for _, id := range tt.dontWant {
				assert.NotContains(t, ids, id)
			}
			if len(tt.want) > 0 {
				// Emission order follows rule order, not severity.
				assert.Equal(t, tt.want, ids)
			}
		})
	}
}

// TestChallengeShiftsOverallScore: boosting a weak loop must pull the
// overall score down, boosting a strong loop must push it up.
func TestChallengeShiftsOverallScore(t *testing.T) {
	engine := newTestEngine(t)
	base := models.AssessmentRequest{
		PipelineRating:   5,
		ConversionRating: 1,
		ExpansionRating:  3,
		EconomicsRating:  3,
	}

	neutral, err := engine.ComputeScores(base)
	require.NoError(t, err)

	weak := base
	weak.TopChallenge = "conversion"
	weakResult, err := engine.ComputeScores(weak)
	require.NoError(t, err)
	assert.Less(t, weakResult.OverallScore, neutral.OverallScore)

	strong := base
	strong.TopChallenge = "pipeline"
	strongResult, err := engine.ComputeScores(strong)
	require.NoError(t, err)
	assert.Greater(t, strongResult.OverallScore, neutral.OverallScore)
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Loop: models.LoopEconomics, Rating: 7}
	assert.Contains(t, err.Error(), "economics")
	assert.Contains(t, err.Error(), "7")
	assert.True(t, errors.As(error(err), new(*ConfigurationError)))
}
