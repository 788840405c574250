package scoring

import "github.com/gtmscore/gtmscore/pkg/models"

// patternRule is one qualitative threshold predicate over the four raw
// ratings. Rules are evaluated in declaration order and are not exclusive;
// any number of them can fire for a single submission.
type patternRule struct {
	id          string
	description string
	priority    models.PatternPriority
	matches     func(pipeline, conversion, expansion, economics int) bool
}

var patternRules = []patternRule{
	{
		id:          "pipeline_conversion_gap",
		description: "Strong lead generation is being wasted by a weak closing motion. Pipeline volume is healthy but deals stall before they convert.",
		priority:    models.PatternPriorityHigh,
		matches: func(p, c, x, e int) bool {
			return p >= 4 && c <= 2
		},
	},
	{
		id:          "leaky_bucket",
		description: "Deals close well but customers churn out the back. New revenue is replacing lost revenue instead of compounding.",
		priority:    models.PatternPriorityHigh,
		matches: func(p, c, x, e int) bool {
			return c >= 4 && x <= 2
		},
	},
	{
		id:          "systematic_issues",
		description: "All three core loops are underperforming at once. The problem is the operating system, not any single function.",
		priority:    models.PatternPriorityCritical,
		matches: func(p, c, x, e int) bool {
			return p <= 2 && c <= 2 && x <= 2
		},
	},
	{
		id:          "scaling_inefficiency",
		description: "Growth is being bought at an unsustainable cost. Pipeline output is strong but the unit economics behind it do not hold up.",
		priority:    models.PatternPriorityMedium,
		matches: func(p, c, x, e int) bool {
			return p >= 4 && e <= 2
		},
	},
}

// detectPatterns evaluates every rule against the raw ratings. Emission
// order follows rule declaration order, not severity.
func detectPatterns(pipeline, conversion, expansion, economics int) []models.DetectedPattern {
	patterns := make([]models.DetectedPattern, 0)
	for _, rule := range patternRules {
		if rule.matches(pipeline, conversion, expansion, economics) {
			patterns = append(patterns, models.DetectedPattern{
				PatternID:   rule.id,
				Description: rule.description,
				Priority:    rule.priority,
			})
		}
	}
	return patterns
}
