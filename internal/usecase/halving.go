package usecase

import (
	"context"
	"math"
	"time"

	"taometrics/internal/domain/models"
	domrepo "taometrics/internal/domain/repository"
	"taometrics/pkg/kv"
	applogger "taometrics/pkg/logger"
	"taometrics/pkg/util"
)

// HalvingUseCase computes the geometric issuance schedule and projects a
// countdown to the next threshold.
type HalvingUseCase struct {
	store     domrepo.MetricStore
	log       *applogger.Logger
	maxSupply float64
	maxEvents int
	now       func() time.Time
}

func NewHalvingUseCase(store domrepo.MetricStore, log *applogger.Logger, maxSupply float64, maxEvents int) *HalvingUseCase {
	if maxSupply <= 0 {
		maxSupply = 21_000_000
	}
	if maxEvents <= 0 {
		maxEvents = 6
	}
	return &HalvingUseCase{
		store:     store,
		log:       log,
		maxSupply: maxSupply,
		maxEvents: maxEvents,
		now:       time.Now,
	}
}

// HalvingThresholds generates threshold(n) = round(maxSupply * (1 - 2^-n))
// for n = 1..maxEvents, independent of live data.
func HalvingThresholds(maxSupply float64, maxEvents int) []float64 {
	out := make([]float64, 0, maxEvents)
	for n := 1; n <= maxEvents; n++ {
		out = append(out, math.Round(maxSupply*(1-1/math.Pow(2, float64(n)))))
	}
	return out
}

// Compute reads the issuance history and builds the schedule view.
func (uc *HalvingUseCase) Compute(ctx context.Context) (*models.HalvingResponse, error) {
	var hist []models.IssuanceSnapshot
	if err := uc.store.GetJSON(ctx, domrepo.KeyIssuanceHistory, &hist); err != nil {
		return nil, err
	}
	if len(hist) == 0 {
		return nil, kv.ErrNotFound
	}

	current := hist[len(hist)-1].TotalIssuance
	var prev float64
	if len(hist) > 1 {
		prev = hist[len(hist)-2].TotalIssuance
	}

	resp := &models.HalvingResponse{
		CurrentSupply:  current,
		EmissionPerDay: EmissionRate(hist),
	}

	for i, threshold := range HalvingThresholds(uc.maxSupply, uc.maxEvents) {
		ev := models.HalvingEvent{Index: i + 1, Threshold: threshold, Crossed: current >= threshold}
		resp.Halvings = append(resp.Halvings, ev)
		if ev.Crossed {
			last := ev
			resp.LastHalving = &last
			// one-shot latch: previous snapshot below, current at/above
			if len(hist) > 1 && prev < threshold {
				crossed := ev
				resp.JustCrossed = &crossed
			}
		} else if resp.Next == nil {
			next := ev
			resp.Next = &next
		}
	}

	if resp.Next != nil && resp.EmissionPerDay > 0 {
		days := (resp.Next.Threshold - current) / resp.EmissionPerDay
		eta := uc.now().Add(time.Duration(days * 24 * float64(time.Hour)))
		resp.NextETA = &eta
	}
	return resp, nil
}

// EmissionRate estimates tokens issued per day: the smoothed projection
// average when the latest snapshot carries one, else a robust average of
// per-day deltas between successive snapshots.
func EmissionRate(hist []models.IssuanceSnapshot) float64 {
	if len(hist) == 0 {
		return 0
	}
	if p := hist[len(hist)-1].ProjectionPerDay; p > 0 {
		return p
	}
	deltas := perDayDeltas(hist)
	if len(deltas) == 0 {
		return 0
	}
	return util.TrimmedMean(deltas, 0.1)
}

func perDayDeltas(hist []models.IssuanceSnapshot) []float64 {
	var out []float64
	for i := 1; i < len(hist); i++ {
		dt := hist[i].Timestamp.Sub(hist[i-1].Timestamp).Seconds()
		if dt <= 0 {
			continue
		}
		delta := hist[i].TotalIssuance - hist[i-1].TotalIssuance
		out = append(out, delta*(86400/dt))
	}
	return out
}
