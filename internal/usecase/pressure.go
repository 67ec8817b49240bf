package usecase

import (
	"context"
	"sort"

	"taometrics/internal/domain/models"
	domrepo "taometrics/internal/domain/repository"
	applogger "taometrics/pkg/logger"
	"taometrics/pkg/util"
)

// AlphaPressureUseCase turns raw per-subnet flow/emission fields into the
// normalized pressure signal.
type AlphaPressureUseCase struct {
	store domrepo.MetricStore
	log   *applogger.Logger
}

func NewAlphaPressureUseCase(store domrepo.MetricStore, log *applogger.Logger) *AlphaPressureUseCase {
	return &AlphaPressureUseCase{store: store, log: log}
}

type AlphaPressureParams struct {
	Netuids []int
	Sort    string
	Limit   int
}

// Compute reads the subnet snapshot key and derives pressure rows.
// A missing key propagates kv.ErrNotFound for the 404/empty path.
func (uc *AlphaPressureUseCase) Compute(ctx context.Context, p AlphaPressureParams) (*models.AlphaPressureResponse, error) {
	var snapshots []models.SubnetSnapshot
	if err := uc.store.GetJSON(ctx, domrepo.KeyTopSubnets, &snapshots); err != nil {
		return nil, err
	}

	if p.Limit <= 0 {
		p.Limit = 150
	}
	filter := make(map[int]bool, len(p.Netuids))
	for _, id := range p.Netuids {
		filter[id] = true
	}

	rows := make([]models.AlphaPressure, 0, len(snapshots))
	for _, s := range snapshots {
		// zero or missing emission: excluded rather than given a sentinel
		if s.EmissionDaily <= 0 {
			continue
		}
		if len(filter) > 0 && !filter[s.Netuid] {
			continue
		}
		rows = append(rows, derivePressure(s))
	}

	sortPressure(rows, p.Sort)
	if len(rows) > p.Limit {
		rows = rows[:p.Limit]
	}

	return &models.AlphaPressureResponse{
		Subnets: rows,
		Summary: summarize(rows),
	}, nil
}

func derivePressure(s models.SubnetSnapshot) models.AlphaPressure {
	p7 := util.RoundTo(s.NetFlow7d/(s.EmissionDaily*7)*100, 1)
	p30 := util.RoundTo(s.NetFlow30d/(s.EmissionDaily*30)*100, 1)

	status := models.StatusBuying
	if p30 < 0 {
		status = models.StatusSelling
	}

	return models.AlphaPressure{
		Netuid:        s.Netuid,
		Name:          s.Name,
		EmissionDaily: s.EmissionDaily,
		NetFlow7d:     s.NetFlow7d,
		NetFlow30d:    s.NetFlow30d,
		Pressure7d:    p7,
		Pressure30d:   p30,
		Trend:         classifyTrend(s.NetFlow7d, s.NetFlow30d),
		Status:        status,
	}
}

// classifyTrend compares the 7-day daily rate to the 30-day daily rate.
// A momentum inversion (positive 30d flow, negative 7d flow) takes priority
// over the ratio test.
func classifyTrend(flow7, flow30 float64) string {
	if flow30 > 0 && flow7 < 0 {
		return models.TrendReversing
	}
	// Compare daily rates directly rather than via their ratio: a ratio
	// flips the bands when both windows are negative.
	rate7 := flow7 / 7
	rate30 := flow30 / 30
	switch {
	case rate7 > 1.2*rate30:
		return models.TrendImproving
	case rate7 < 0.8*rate30:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func sortPressure(rows []models.AlphaPressure, key string) {
	switch key {
	case "emission":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].EmissionDaily > rows[j].EmissionDaily })
	case "flow":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].NetFlow30d < rows[j].NetFlow30d })
	default: // pressure
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Pressure30d < rows[j].Pressure30d })
	}
}

func summarize(rows []models.AlphaPressure) models.AlphaPressureSummary {
	s := models.AlphaPressureSummary{TotalSubnets: len(rows)}
	var sum float64
	for _, r := range rows {
		if r.Status == models.StatusBuying {
			s.Buying++
		} else {
			s.Selling++
		}
		s.TotalNetFlow30d += r.NetFlow30d
		sum += r.Pressure30d
	}
	if len(rows) > 0 {
		s.AvgPressure30d = util.RoundTo(sum/float64(len(rows)), 1)
	}
	s.TotalNetFlow30d = util.RoundTo(s.TotalNetFlow30d, 0)
	return s
}
