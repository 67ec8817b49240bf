package models

// Trend labels for the alpha-pressure momentum comparison.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendReversing = "reversing"
	TrendStable    = "stable"
)

// Status labels, sign-based on 30d pressure.
const (
	StatusBuying  = "buying"
	StatusSelling = "selling"
)

// AlphaPressure is the derived buy/sell-pressure signal for one subnet:
// net flow normalized by emission over a window, as a percentage.
type AlphaPressure struct {
	Netuid        int     `json:"netuid"`
	Name          string  `json:"name"`
	EmissionDaily float64 `json:"emission_daily_tao"`
	NetFlow7d     float64 `json:"net_flow_7d_tao"`
	NetFlow30d    float64 `json:"net_flow_30d_tao"`
	Pressure7d    float64 `json:"alpha_pressure_7d"`
	Pressure30d   float64 `json:"alpha_pressure_30d"`
	Trend         string  `json:"trend"`
	Status        string  `json:"status"`
}

// AlphaPressureSummary aggregates the filtered result set.
type AlphaPressureSummary struct {
	TotalSubnets    int     `json:"total_subnets"`
	Buying          int     `json:"buying"`
	Selling         int     `json:"selling"`
	TotalNetFlow30d float64 `json:"total_net_flow_30d_tao"`
	AvgPressure30d  float64 `json:"avg_pressure_30d"`
}

// AlphaPressureResponse is the /api/alpha_pressure payload.
type AlphaPressureResponse struct {
	Provenance
	Subnets []AlphaPressure      `json:"subnets"`
	Summary AlphaPressureSummary `json:"summary"`
}
