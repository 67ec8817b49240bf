package usecase

import (
	"context"
	"sort"
	"strings"

	"taometrics/internal/domain/models"
	domrepo "taometrics/internal/domain/repository"
	applogger "taometrics/pkg/logger"
	"taometrics/pkg/util"
)

// knownExchanges are the human-readable identities of centralized-exchange
// wallets; supply held by them counts toward the CEX share metric.
var knownExchanges = []string{
	"binance", "kucoin", "kraken", "bitget", "mexc", "okx", "gate.io", "bybit",
}

// CompositeWeights are the tuning weights of the composite score; they
// renormalize over the components that are actually present.
type CompositeWeights struct {
	Wallet    float64
	Validator float64
	Subnet    float64
}

// DefaultCompositeWeights weighs wallet distribution at half and splits the
// rest between validators and subnets.
func DefaultCompositeWeights() CompositeWeights {
	return CompositeWeights{Wallet: 0.5, Validator: 0.25, Subnet: 0.25}
}

// DecentralizationUseCase relays the precomputed score object and fills in
// the bits derivable at read time (Nakamoto band, CEX supply share).
type DecentralizationUseCase struct {
	store   domrepo.MetricStore
	log     *applogger.Logger
	weights CompositeWeights
}

func NewDecentralizationUseCase(store domrepo.MetricStore, log *applogger.Logger, weights CompositeWeights) *DecentralizationUseCase {
	if weights.Wallet == 0 && weights.Validator == 0 && weights.Subnet == 0 {
		weights = DefaultCompositeWeights()
	}
	return &DecentralizationUseCase{store: store, log: log, weights: weights}
}

// Get reads the stored score, recomputes the composite over present
// components, and derives band and CEX share when absent.
func (uc *DecentralizationUseCase) Get(ctx context.Context) (*models.DecentralizationScore, error) {
	var score models.DecentralizationScore
	if err := uc.store.GetJSON(ctx, domrepo.KeyDecentralizationScore, &score); err != nil {
		return nil, err
	}

	score.Score = CompositeScore(score.WalletScore, score.ValidatorScore, score.SubnetScore, uc.weights)
	if score.Score != nil && score.Rating == "" {
		score.Rating = ratingFromScore(*score.Score)
	}
	if score.NakamotoBand == "" && score.Nakamoto > 0 {
		score.NakamotoBand = NakamotoBand(score.Nakamoto)
	}
	if score.CexSupplyPct == nil {
		if pct, ok := uc.cexSupplyShare(ctx); ok {
			score.CexSupplyPct = &pct
		}
	}
	return &score, nil
}

func (uc *DecentralizationUseCase) cexSupplyShare(ctx context.Context) (float64, bool) {
	var holders []models.HolderShare
	if err := uc.store.GetJSON(ctx, domrepo.KeyTopWallets, &holders); err != nil {
		return 0, false
	}
	return CexSupplyShare(holders)
}

// Gini computes the Gini coefficient over raw amounts:
// G = (2 * sum(i * x_i)) / (n * sum(x_i)) - (n + 1) / n with values sorted
// ascending and i 1-indexed. Clamped to [0, 1], rounded to 4 decimals.
func Gini(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	var total, cumsum float64
	for i, v := range sorted {
		total += v
		cumsum += float64(i+1) * v
	}
	if total == 0 {
		return 0
	}
	g := (2*cumsum)/(n*total) - (n+1)/n
	return util.RoundTo(util.Clamp(g, 0, 1), 4)
}

// Nakamoto returns the minimum number of top entities whose cumulative
// share reaches 51% of the total.
func Nakamoto(values []float64) int {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var total float64
	for _, v := range sorted {
		total += v
	}
	if total == 0 {
		return len(sorted)
	}

	var cumulative float64
	for i, v := range sorted {
		cumulative += v
		if cumulative/total >= 0.51 {
			return i + 1
		}
	}
	return len(sorted)
}

// HHI is the Herfindahl-Hirschman Index over normalized shares, in
// [1/n, 1]; lower is more decentralized. Rounded to 6 decimals.
func HHI(values []float64) float64 {
	if len(values) == 0 {
		return 1
	}
	var total float64
	for _, v := range values {
		total += v
	}
	if total == 0 {
		return 1
	}
	var hhi float64
	for _, v := range values {
		s := v / total
		hhi += s * s
	}
	return util.RoundTo(hhi, 6)
}

// TopConcentration returns the share of the total held by the top n
// entities, as a fraction rounded to 4 decimals.
func TopConcentration(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var total, top float64
	for i, v := range sorted {
		total += v
		if i < n {
			top += v
		}
	}
	if total == 0 {
		return 0
	}
	return util.RoundTo(top/total, 4)
}

// NakamotoBand is the fixed ordinal classification of a Nakamoto
// coefficient; no interpolation.
func NakamotoBand(n int) string {
	switch {
	case n <= 3:
		return "Critical"
	case n <= 7:
		return "Low"
	case n <= 15:
		return "Moderate"
	default:
		return "Good"
	}
}

// CompositeScore combines present sub-scores with renormalized weights.
// Missing components drop out of both numerator and weight sum; when every
// component is missing the result is nil, never a division by zero.
func CompositeScore(wallet, validator, subnet *float64, w CompositeWeights) *float64 {
	var sum, weightSum float64
	if wallet != nil {
		sum += *wallet * w.Wallet
		weightSum += w.Wallet
	}
	if validator != nil {
		sum += *validator * w.Validator
		weightSum += w.Validator
	}
	if subnet != nil {
		sum += *subnet * w.Subnet
		weightSum += w.Subnet
	}
	if weightSum == 0 {
		return nil
	}
	score := util.RoundTo(sum/weightSum, 1)
	return &score
}

func ratingFromScore(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 65:
		return "Good"
	case score >= 50:
		return "Moderate"
	case score >= 35:
		return "Concerning"
	default:
		return "Poor"
	}
}

// CexSupplyShare returns the percentage of the listed supply held by wallets
// whose identity matches a known exchange name. The second return is false
// when the holder list is empty or carries no balance.
func CexSupplyShare(holders []models.HolderShare) (float64, bool) {
	var total, cex float64
	for _, h := range holders {
		total += h.Amount
		if isExchange(h.Name) {
			cex += h.Amount
		}
	}
	if total == 0 {
		return 0, false
	}
	return util.RoundTo(cex/total*100, 1), true
}

func isExchange(name string) bool {
	lower := strings.ToLower(name)
	for _, ex := range knownExchanges {
		if strings.Contains(lower, ex) {
			return true
		}
	}
	return false
}
