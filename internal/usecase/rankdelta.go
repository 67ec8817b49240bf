package usecase

import "taometrics/internal/domain/models"

// RankDeltas diffs the current ordered list against the oldest available
// historical snapshot. Position in each list defines 1-based rank;
// delta = oldRank - newRank, so positive means improved. Entities absent
// from history are flagged New rather than given a delta of zero.
//
// One implementation serves all four ranked entity types (subnets by
// emission, subnets by market cap, wallets, validators); id extracts the
// stable identity from an element.
func RankDeltas[T any](current, oldest []T, id func(T) string) []models.RankDelta {
	oldRanks := make(map[string]int, len(oldest))
	for i, e := range oldest {
		key := id(e)
		if _, dup := oldRanks[key]; !dup {
			oldRanks[key] = i + 1
		}
	}

	deltas := make([]models.RankDelta, 0, len(current))
	for i, e := range current {
		d := models.RankDelta{ID: id(e), NewRank: i + 1}
		if oldRank, ok := oldRanks[d.ID]; ok {
			d.OldRank = oldRank
			d.Delta = oldRank - d.NewRank
		} else {
			d.New = true
		}
		deltas = append(deltas, d)
	}
	return deltas
}

// RankedEntryID extracts the id of a published ranking row.
func RankedEntryID(e models.RankedEntry) string { return e.ID }
