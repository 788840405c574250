package scoring

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gtmscore/gtmscore/pkg/models"
)

// MetricValues maps metric identifiers to their benchmark-study values for a
// single rating level.
type MetricValues map[string]float64

// MetricBundle maps a stringified rating ("1".."5") to the metric values
// observed at that maturity level. Bundles are immutable after load.
type MetricBundle map[string]MetricValues

// MetricBundles holds one bundle per scoring category. Loaded once at
// startup and passed into the engine; never mutated at request time.
type MetricBundles struct {
	Pipeline   MetricBundle `json:"pipeline"`
	Conversion MetricBundle `json:"conversion"`
	Expansion  MetricBundle `json:"expansion"`
	Economics  MetricBundle `json:"economics"`
}

// requiredMetrics lists the metric identifiers every rating level of a
// category must define. The scoring terms reference exactly these keys.
var requiredMetrics = map[models.Loop][]string{
	models.LoopPipeline: {
		"lead_velocity_rate",
		"mql_to_sql_conversion",
		"marketing_contribution_pipeline",
		"pipeline_coverage_ratio",
		"inbound_lead_volume_growth",
		"lead_response_time",
	},
	models.LoopConversion: {
		"win_rate",
		"sales_cycle_length",
		"sql_acceptance_rate",
		"demo_to_proposal_rate",
		"proposal_to_won_rate",
		"pipeline_conversion_rate",
	},
	models.LoopExpansion: {
		"nrr",
		"grr",
		"churn_rate",
		"expansion_revenue_growth",
		"nps",
		"time_to_first_value",
	},
	models.LoopEconomics: {
		"cac_payback_period",
		"ltv_cac",
		"burn_multiple",
		"sales_rep_ramp_time",
		"quota_attainment",
		"magic_number",
		"rule_of_40",
	},
}

// LoadBundles reads and validates the metric bundle tables from a JSON file.
// A missing or malformed file is a startup-fatal configuration error; the
// process must not serve requests against inconsistent tables.
func LoadBundles(path string) (*MetricBundles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metric bundles %s: %w", path, err)
	}

	bundles := &MetricBundles{}
	if err := json.Unmarshal(data, bundles); err != nil {
		return nil, fmt.Errorf("failed to parse metric bundles %s: %w", path, err)
	}

	if err := bundles.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metric bundles %s: %w", path, err)
	}

	return bundles, nil
}

// Validate checks that every category defines all five rating levels and
// that each level carries every metric the scoring terms reference.
func (b *MetricBundles) Validate() error {
	for loop, bundle := range b.byLoop() {
		if bundle == nil {
			return fmt.Errorf("category %s is missing", loop)
		}
		for rating := models.MinRating; rating <= models.MaxRating; rating++ {
			key := fmt.Sprintf("%d", rating)
			values, ok := bundle[key]
			if !ok {
				return fmt.Errorf("category %s has no entry for rating %s", loop, key)
			}
			for _, metric := range requiredMetrics[loop] {
				if _, ok := values[metric]; !ok {
					return fmt.Errorf("category %s rating %s is missing metric %s", loop, key, metric)
				}
			}
		}
	}
	return nil
}

// bundle returns the table for a loop.
func (b *MetricBundles) bundle(loop models.Loop) MetricBundle {
	switch loop {
	case models.LoopPipeline:
		return b.Pipeline
	case models.LoopConversion:
		return b.Conversion
	case models.LoopExpansion:
		return b.Expansion
	case models.LoopEconomics:
		return b.Economics
	default:
		return nil
	}
}

func (b *MetricBundles) byLoop() map[models.Loop]MetricBundle {
	return map[models.Loop]MetricBundle{
		models.LoopPipeline:   b.Pipeline,
		models.LoopConversion: b.Conversion,
		models.LoopExpansion:  b.Expansion,
		models.LoopEconomics:  b.Economics,
	}
}
