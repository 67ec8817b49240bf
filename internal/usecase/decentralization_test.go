package usecase

import (
	"context"
	"math"
	"testing"

	"taometrics/internal/domain/models"
	domrepo "taometrics/internal/domain/repository"
	"taometrics/internal/repository"
	"taometrics/pkg/kv"
	applogger "taometrics/pkg/logger"
)

func fp(v float64) *float64 { return &v }

func TestGini(t *testing.T) {
	if got := Gini([]float64{10, 10, 10, 10}); got != 0 {
		t.Fatalf("equal distribution gini = %v, want 0", got)
	}
	// one holder owns everything among 4: G = (n-1)/n = 0.75
	if got := Gini([]float64{0, 0, 0, 100}); got != 0.75 {
		t.Fatalf("max inequality gini = %v, want 0.75", got)
	}
	if got := Gini([]float64{5}); got != 0 {
		t.Fatalf("single value gini = %v, want 0", got)
	}
	if got := Gini([]float64{0, 0}); got != 0 {
		t.Fatalf("zero total gini = %v, want 0", got)
	}
}

func TestNakamoto(t *testing.T) {
	// top entity holds 60% -> 1 entity controls 51%
	if got := Nakamoto([]float64{60, 20, 10, 10}); got != 1 {
		t.Fatalf("nakamoto = %d, want 1", got)
	}
	// equal split of 10: need 6 entities for 51%+
	equal := make([]float64, 10)
	for i := range equal {
		equal[i] = 10
	}
	if got := Nakamoto(equal); got != 6 {
		t.Fatalf("nakamoto equal split = %d, want 6", got)
	}
	if got := Nakamoto(nil); got != 0 {
		t.Fatalf("nakamoto empty = %d, want 0", got)
	}
}

func TestHHI(t *testing.T) {
	// equal quarters: 4 * 0.25^2 = 0.25
	if got := HHI([]float64{1, 1, 1, 1}); got != 0.25 {
		t.Fatalf("hhi = %v, want 0.25", got)
	}
	if got := HHI([]float64{5}); got != 1 {
		t.Fatalf("monopoly hhi = %v, want 1", got)
	}
}

func TestTopConcentration(t *testing.T) {
	got := TopConcentration([]float64{50, 30, 10, 5, 5}, 2)
	if got != 0.8 {
		t.Fatalf("top-2 concentration = %v, want 0.8", got)
	}
}

func TestNakamotoBand(t *testing.T) {
	cases := map[int]string{
		1: "Critical", 3: "Critical",
		4: "Low", 7: "Low",
		8: "Moderate", 15: "Moderate",
		16: "Good", 100: "Good",
	}
	for n, want := range cases {
		if got := NakamotoBand(n); got != want {
			t.Fatalf("NakamotoBand(%d) = %s, want %s", n, got, want)
		}
	}
}

func TestCompositeScoreRenormalizes(t *testing.T) {
	w := DefaultCompositeWeights()

	full := CompositeScore(fp(80), fp(60), fp(40), w)
	if full == nil || *full != 65.0 {
		t.Fatalf("full composite = %v, want 65.0", full)
	}

	// validator missing: (80*0.5 + 40*0.25) / 0.75 = 66.7
	partial := CompositeScore(fp(80), nil, fp(40), w)
	if partial == nil || math.Abs(*partial-66.7) > 1e-9 {
		t.Fatalf("partial composite = %v, want 66.7", partial)
	}

	if got := CompositeScore(nil, nil, nil, w); got != nil {
		t.Fatalf("all components missing should yield nil, got %v", *got)
	}
}

func TestCexSupplyShare(t *testing.T) {
	holders := []models.HolderShare{
		{Name: "Binance Cold Wallet", Amount: 30},
		{Name: "community pool", Amount: 50},
		{Name: "Kraken", Amount: 20},
	}
	pct, ok := CexSupplyShare(holders)
	if !ok || pct != 50.0 {
		t.Fatalf("cex share = %v (%v), want 50.0", pct, ok)
	}

	if _, ok := CexSupplyShare(nil); ok {
		t.Fatalf("empty holder list should report no share")
	}
}

func TestGetFillsDerivedFields(t *testing.T) {
	ms := repository.NewKVMetricStore(kv.NewMemoryStore(), applogger.Nop(), nil, 0)
	ctx := context.Background()

	stored := models.DecentralizationScore{
		WalletScore:    fp(80),
		ValidatorScore: fp(60),
		SubnetScore:    fp(40),
		Nakamoto:       5,
	}
	if err := ms.PutJSON(ctx, domrepo.KeyDecentralizationScore, stored, 0); err != nil {
		t.Fatalf("seed score: %v", err)
	}
	wallets := []models.HolderShare{
		{Name: "Binance", Amount: 25},
		{Name: "someone", Amount: 75},
	}
	if err := ms.PutJSON(ctx, domrepo.KeyTopWallets, wallets, 0); err != nil {
		t.Fatalf("seed wallets: %v", err)
	}

	uc := NewDecentralizationUseCase(ms, applogger.Nop(), CompositeWeights{})
	got, err := uc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score == nil || *got.Score != 65.0 {
		t.Fatalf("score = %v, want 65.0", got.Score)
	}
	if got.Rating != "Good" {
		t.Fatalf("rating = %s, want Good", got.Rating)
	}
	if got.NakamotoBand != "Low" {
		t.Fatalf("band = %s, want Low", got.NakamotoBand)
	}
	if got.CexSupplyPct == nil || *got.CexSupplyPct != 25.0 {
		t.Fatalf("cex pct = %v, want 25.0", got.CexSupplyPct)
	}
}
