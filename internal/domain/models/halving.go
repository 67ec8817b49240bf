package models

import "time"

// HalvingEvent is one threshold of the geometric issuance schedule.
type HalvingEvent struct {
	Index     int     `json:"n"`
	Threshold float64 `json:"threshold_tao"`
	Crossed   bool    `json:"crossed"`
}

// IssuanceSnapshot is one observation of cumulative issuance, used to
// estimate the current emission rate.
type IssuanceSnapshot struct {
	Timestamp        time.Time `json:"timestamp"`
	TotalIssuance    float64   `json:"total_issuance_tao"`
	ProjectionPerDay float64   `json:"projection_avg_per_day,omitempty"`
}

// HalvingResponse is the /api/halving payload.
type HalvingResponse struct {
	Provenance
	Halvings       []HalvingEvent `json:"halvings"`
	Next           *HalvingEvent  `json:"next,omitempty"`
	LastHalving    *HalvingEvent  `json:"last_halving,omitempty"`
	JustCrossed    *HalvingEvent  `json:"just_crossed,omitempty"`
	CurrentSupply  float64        `json:"current_supply_tao"`
	EmissionPerDay float64        `json:"emission_per_day_tao"`
	NextETA        *time.Time     `json:"next_eta,omitempty"`
}
