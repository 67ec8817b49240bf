package models

// HolderShare is one entity's share of the measured resource: wallet balance,
// validator stake, or subnet emission.
type HolderShare struct {
	Name    string  `json:"name,omitempty"`
	Address string  `json:"address,omitempty"`
	Amount  float64 `json:"amount"`
}

// ConcentrationMetrics are the Gini-style measures computed over one
// resource distribution.
type ConcentrationMetrics struct {
	Gini     float64 `json:"gini"`
	Nakamoto int     `json:"nakamoto_coefficient"`
	HHI      float64 `json:"hhi"`
	TopN     int     `json:"top_n"`
	TopNPct  float64 `json:"top_n_percent"`
}

// DecentralizationScore is the composite score object relayed from the KV
// store, recombined from wallet/validator/subnet sub-scores. Score is nil
// when every component is missing.
type DecentralizationScore struct {
	Provenance
	Score          *float64              `json:"score"`
	Rating         string                `json:"rating,omitempty"`
	WalletScore    *float64              `json:"wallet_score,omitempty"`
	ValidatorScore *float64              `json:"validator_score,omitempty"`
	SubnetScore    *float64              `json:"subnet_score,omitempty"`
	Nakamoto       int                   `json:"nakamoto_coefficient,omitempty"`
	NakamotoBand   string                `json:"nakamoto_band,omitempty"`
	Wallets        *ConcentrationMetrics `json:"wallets,omitempty"`
	Validators     *ConcentrationMetrics `json:"validators,omitempty"`
	Subnets        *ConcentrationMetrics `json:"subnets,omitempty"`
	CexSupplyPct   *float64              `json:"cex_supply_percent,omitempty"`
}
