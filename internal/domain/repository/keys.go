package repository

// Fixed KV key names written by the batch pipeline and read by handlers.
const (
	KeyTopSubnets             = "top_subnets"
	KeyTopValidators          = "top_validators"
	KeyTopWallets             = "top_wallets"
	KeyDistribution           = "distribution"
	KeyDecentralizationScore  = "decentralization_score"
	KeyDecentralizationHist   = "decentralization_history"
	KeyTopSubnetsHistory      = "top_subnets_history"
	KeyTopWalletsHistory      = "top_wallets_history"
	KeyTopValidatorsHistory   = "top_validators_history"
	KeyMcapHistory            = "mcap_history"
	KeyAlphaPressureHistory   = "alpha_pressure_history"
	KeyOwnerDumpScores        = "owner_dump_scores"
	KeyTaoPrice               = "tao_price"
	KeyCMCCache               = "cmc_cache"
	KeyIssuanceHistory        = "issuance_history"
	KeyTaostatsLastGoodPrefix = "taostats_last_good:"
)
