package usecase

import (
	"context"
	"errors"
	"testing"

	"taometrics/internal/domain/models"
	domrepo "taometrics/internal/domain/repository"
	"taometrics/internal/repository"
	"taometrics/pkg/kv"
	applogger "taometrics/pkg/logger"
)

func seedSubnets(t *testing.T, subnets []models.SubnetSnapshot) domrepo.MetricStore {
	t.Helper()
	ms := repository.NewKVMetricStore(kv.NewMemoryStore(), applogger.Nop(), nil, 0)
	if err := ms.PutJSON(context.Background(), domrepo.KeyTopSubnets, subnets, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return ms
}

func TestComputeExcludesZeroEmission(t *testing.T) {
	ms := seedSubnets(t, []models.SubnetSnapshot{
		{Netuid: 1, Name: "a", EmissionDaily: 100, NetFlow30d: 300},
		{Netuid: 2, Name: "b", EmissionDaily: 0, NetFlow30d: 500},
		{Netuid: 3, Name: "c", NetFlow30d: 500},
	})
	uc := NewAlphaPressureUseCase(ms, applogger.Nop())

	resp, err := uc.Compute(context.Background(), AlphaPressureParams{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(resp.Subnets) != 1 || resp.Subnets[0].Netuid != 1 {
		t.Fatalf("expected only subnet 1, got %+v", resp.Subnets)
	}
}

func TestPressure30dFormula(t *testing.T) {
	// 450 / (100 * 30) * 100 = 15.0; 7d: 70 / (100 * 7) * 100 = 10.0
	ms := seedSubnets(t, []models.SubnetSnapshot{
		{Netuid: 1, EmissionDaily: 100, NetFlow7d: 70, NetFlow30d: 450},
	})
	uc := NewAlphaPressureUseCase(ms, applogger.Nop())

	resp, err := uc.Compute(context.Background(), AlphaPressureParams{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	got := resp.Subnets[0]
	if got.Pressure30d != 15.0 {
		t.Fatalf("pressure 30d = %v, want 15.0", got.Pressure30d)
	}
	if got.Pressure7d != 10.0 {
		t.Fatalf("pressure 7d = %v, want 10.0", got.Pressure7d)
	}
	if got.Status != models.StatusBuying {
		t.Fatalf("status = %s, want buying", got.Status)
	}
}

func TestPressureRounding(t *testing.T) {
	// 100 / (7 * 30) * 100 = 47.619... -> 47.6
	ms := seedSubnets(t, []models.SubnetSnapshot{
		{Netuid: 1, EmissionDaily: 7, NetFlow30d: 100},
	})
	uc := NewAlphaPressureUseCase(ms, applogger.Nop())

	resp, err := uc.Compute(context.Background(), AlphaPressureParams{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got := resp.Subnets[0].Pressure30d; got != 47.6 {
		t.Fatalf("pressure 30d = %v, want 47.6", got)
	}
}

func TestClassifyTrend(t *testing.T) {
	cases := []struct {
		name   string
		flow7  float64
		flow30 float64
		want   string
	}{
		{"reversing overrides ratio", -10, 300, models.TrendReversing},
		{"reversing even when ratio would improve", -0.1, 0.5, models.TrendReversing},
		{"improving", 100, 300, models.TrendImproving}, // rate7 14.3 vs rate30 10
		{"declining", 50, 300, models.TrendDeclining},  // rate7 7.1 vs rate30 10
		{"stable", 70, 300, models.TrendStable},        // rate7 10 vs rate30 10
		{"flat long window, inflow starting", 10, 0, models.TrendImproving},
		{"flat both windows", 0, 0, models.TrendStable},
		{"selling accelerating", -14, -30, models.TrendDeclining}, // rate7 -2 vs rate30 -1
		{"selling decelerating", -3.5, -30, models.TrendImproving},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyTrend(tc.flow7, tc.flow30); got != tc.want {
				t.Fatalf("classifyTrend(%v, %v) = %s, want %s", tc.flow7, tc.flow30, got, tc.want)
			}
		})
	}
}

func TestSellingStatusOnNegativePressure(t *testing.T) {
	ms := seedSubnets(t, []models.SubnetSnapshot{
		{Netuid: 1, EmissionDaily: 100, NetFlow7d: -50, NetFlow30d: -900},
	})
	uc := NewAlphaPressureUseCase(ms, applogger.Nop())

	resp, err := uc.Compute(context.Background(), AlphaPressureParams{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if resp.Subnets[0].Status != models.StatusSelling {
		t.Fatalf("status = %s, want selling", resp.Subnets[0].Status)
	}
	if resp.Summary.Selling != 1 || resp.Summary.Buying != 0 {
		t.Fatalf("summary counts wrong: %+v", resp.Summary)
	}
}

func TestSortAndLimitByFlow(t *testing.T) {
	ms := seedSubnets(t, []models.SubnetSnapshot{
		{Netuid: 1, EmissionDaily: 10, NetFlow30d: 500},
		{Netuid: 2, EmissionDaily: 10, NetFlow30d: -200},
		{Netuid: 3, EmissionDaily: 10, NetFlow30d: 100},
		{Netuid: 4, EmissionDaily: 10, NetFlow30d: -900},
		{Netuid: 5, EmissionDaily: 10, NetFlow30d: 50},
	})
	uc := NewAlphaPressureUseCase(ms, applogger.Nop())

	resp, err := uc.Compute(context.Background(), AlphaPressureParams{Sort: "flow", Limit: 2})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(resp.Subnets) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(resp.Subnets))
	}
	if resp.Subnets[0].Netuid != 4 || resp.Subnets[1].Netuid != 2 {
		t.Fatalf("expected flow ascending [4 2], got [%d %d]", resp.Subnets[0].Netuid, resp.Subnets[1].Netuid)
	}
}

func TestSortByEmissionDescending(t *testing.T) {
	ms := seedSubnets(t, []models.SubnetSnapshot{
		{Netuid: 1, EmissionDaily: 10},
		{Netuid: 2, EmissionDaily: 30},
		{Netuid: 3, EmissionDaily: 20},
	})
	uc := NewAlphaPressureUseCase(ms, applogger.Nop())

	resp, err := uc.Compute(context.Background(), AlphaPressureParams{Sort: "emission"})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	got := []int{resp.Subnets[0].Netuid, resp.Subnets[1].Netuid, resp.Subnets[2].Netuid}
	if got[0] != 2 || got[1] != 3 || got[2] != 1 {
		t.Fatalf("expected emission descending [2 3 1], got %v", got)
	}
}

func TestNetuidFilter(t *testing.T) {
	ms := seedSubnets(t, []models.SubnetSnapshot{
		{Netuid: 1, EmissionDaily: 10},
		{Netuid: 2, EmissionDaily: 10},
		{Netuid: 3, EmissionDaily: 10},
	})
	uc := NewAlphaPressureUseCase(ms, applogger.Nop())

	resp, err := uc.Compute(context.Background(), AlphaPressureParams{Netuids: []int{2, 3}})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(resp.Subnets) != 2 {
		t.Fatalf("expected 2 rows after netuid filter, got %d", len(resp.Subnets))
	}
}

func TestMissingKeyPropagatesNotFound(t *testing.T) {
	ms := repository.NewKVMetricStore(kv.NewMemoryStore(), applogger.Nop(), nil, 0)
	uc := NewAlphaPressureUseCase(ms, applogger.Nop())

	_, err := uc.Compute(context.Background(), AlphaPressureParams{})
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
