package models

// SubnetSnapshot is one per-subnet record produced by the batch pipeline,
// stored as a JSON array under the top_subnets key. Read-only at request time.
type SubnetSnapshot struct {
	Netuid        int     `json:"netuid"`
	Name          string  `json:"name"`
	OwnerSS58     string  `json:"owner_ss58,omitempty"`
	OwnerName     string  `json:"owner_name,omitempty"`
	EmissionDaily float64 `json:"emission_daily_tao"`
	NetFlow7d     float64 `json:"net_flow_7d_tao"`
	NetFlow30d    float64 `json:"net_flow_30d_tao"`
	PoolLiquidity float64 `json:"pool_liquidity_tao,omitempty"`
	MarketCapTao  float64 `json:"market_cap_tao,omitempty"`
}

// Provenance carries the informal trust fields attached to success payloads.
type Provenance struct {
	Source    string `json:"_source,omitempty"`
	Timestamp string `json:"_timestamp,omitempty"`
	Status    string `json:"_status,omitempty"`
}
