package scoring

// DefaultBundles returns the built-in metric bundle tables, derived from
// the benchmark study behind the assessment. A deployment can override them
// with a JSON file via LoadBundles; the shapes are identical.
func DefaultBundles() *MetricBundles {
	return &MetricBundles{
		Pipeline: MetricBundle{
			"1": {"lead_velocity_rate": 2, "mql_to_sql_conversion": 10, "marketing_contribution_pipeline": 15, "pipeline_coverage_ratio": 1.5, "inbound_lead_volume_growth": 3, "lead_response_time": 24},
			"2": {"lead_velocity_rate": 5, "mql_to_sql_conversion": 18, "marketing_contribution_pipeline": 25, "pipeline_coverage_ratio": 2.0, "inbound_lead_volume_growth": 8, "lead_response_time": 12},
			"3": {"lead_velocity_rate": 8, "mql_to_sql_conversion": 25, "marketing_contribution_pipeline": 35, "pipeline_coverage_ratio": 3.0, "inbound_lead_volume_growth": 12, "lead_response_time": 6},
			"4": {"lead_velocity_rate": 12, "mql_to_sql_conversion": 34, "marketing_contribution_pipeline": 45, "pipeline_coverage_ratio": 3.8, "inbound_lead_volume_growth": 18, "lead_response_time": 2},
			"5": {"lead_velocity_rate": 18, "mql_to_sql_conversion": 45, "marketing_contribution_pipeline": 55, "pipeline_coverage_ratio": 4.5, "inbound_lead_volume_growth": 25, "lead_response_time": 0.5},
		},
		Conversion: MetricBundle{
			"1": {"win_rate": 8, "sales_cycle_length": 150, "sql_acceptance_rate": 35, "demo_to_proposal_rate": 20, "proposal_to_won_rate": 15, "pipeline_conversion_rate": 5},
			"2": {"win_rate": 14, "sales_cycle_length": 110, "sql_acceptance_rate": 50, "demo_to_proposal_rate": 32, "proposal_to_won_rate": 25, "pipeline_conversion_rate": 10},
			"3": {"win_rate": 20, "sales_cycle_length": 85, "sql_acceptance_rate": 62, "demo_to_proposal_rate": 42, "proposal_to_won_rate": 33, "pipeline_conversion_rate": 15},
			"4": {"win_rate": 27, "sales_cycle_length": 60, "sql_acceptance_rate": 74, "demo_to_proposal_rate": 54, "proposal_to_won_rate": 43, "pipeline_conversion_rate": 20},
			"5": {"win_rate": 35, "sales_cycle_length": 40, "sql_acceptance_rate": 85, "demo_to_proposal_rate": 65, "proposal_to_won_rate": 55, "pipeline_conversion_rate": 27},
		},
		Expansion: MetricBundle{
			"1": {"nrr": 82, "grr": 70, "churn_rate": 32, "expansion_revenue_growth": 2, "nps": 5, "time_to_first_value": 120},
			"2": {"nrr": 92, "grr": 80, "churn_rate": 22, "expansion_revenue_growth": 8, "nps": 20, "time_to_first_value": 75},
			"3": {"nrr": 101, "grr": 87, "churn_rate": 14, "expansion_revenue_growth": 14, "nps": 35, "time_to_first_value": 45},
			"4": {"nrr": 112, "grr": 92, "churn_rate": 8, "expansion_revenue_growth": 20, "nps": 50, "time_to_first_value": 25},
			"5": {"nrr": 125, "grr": 96, "churn_rate": 4, "expansion_revenue_growth": 28, "nps": 65, "time_to_first_value": 10},
		},
		Economics: MetricBundle{
			"1": {"cac_payback_period": 40, "ltv_cac": 1.2, "burn_multiple": 4.5, "sales_rep_ramp_time": 10, "quota_attainment": 35, "magic_number": 0.3, "rule_of_40": 5},
			"2": {"cac_payback_period": 30, "ltv_cac": 2.0, "burn_multiple": 3.2, "sales_rep_ramp_time": 8, "quota_attainment": 50, "magic_number": 0.5, "rule_of_40": 18},
			"3": {"cac_payback_period": 22, "ltv_cac": 2.8, "burn_multiple": 2.2, "sales_rep_ramp_time": 6.5, "quota_attainment": 62, "magic_number": 0.7, "rule_of_40": 28},
			"4": {"cac_payback_period": 15, "ltv_cac": 3.6, "burn_multiple": 1.4, "sales_rep_ramp_time": 5, "quota_attainment": 74, "magic_number": 0.9, "rule_of_40": 38},
			"5": {"cac_payback_period": 9, "ltv_cac": 4.6, "burn_multiple": 0.8, "sales_rep_ramp_time": 3.5, "quota_attainment": 85, "magic_number": 1.2, "rule_of_40": 50},
		},
	}
}
