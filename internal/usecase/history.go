package usecase

import (
	"context"
	"encoding/json"
	"time"

	"taometrics/internal/domain/models"
	domrepo "taometrics/internal/domain/repository"
	applogger "taometrics/pkg/logger"
)

// HistoryUseCase serves the KV-backed recent history and the ClickHouse
// long-term archive behind one interface.
type HistoryUseCase struct {
	store   domrepo.MetricStore
	archive domrepo.ArchiveStore // nil when the archive is disabled
	log     *applogger.Logger
	now     func() time.Time
}

func NewHistoryUseCase(store domrepo.MetricStore, archive domrepo.ArchiveStore, log *applogger.Logger) *HistoryUseCase {
	return &HistoryUseCase{store: store, archive: archive, log: log, now: time.Now}
}

// Recent returns the newest limit entries of a history key, oldest first.
func (uc *HistoryUseCase) Recent(ctx context.Context, key string, limit int) ([]models.HistoryEntry, error) {
	return uc.store.History(ctx, key, limit)
}

// Archived returns daily archive rows for the last days, oldest first.
// Rows whose payload fails to decode are skipped, not fatal.
func (uc *HistoryUseCase) Archived(ctx context.Context, key string, days int) ([]models.HistoryEntry, error) {
	if uc.archive == nil {
		return nil, nil
	}
	to := uc.now()
	rows, err := uc.archive.QueryRange(ctx, key, to.AddDate(0, 0, -days), to)
	if err != nil {
		return nil, err
	}

	entries := make([]models.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		var e models.HistoryEntry
		if err := json.Unmarshal(r.Payload, &e); err != nil {
			if uc.log != nil {
				uc.log.Warn("skipping malformed archive row",
					applogger.String("key", r.Key),
					applogger.String("day", r.Day.Format("2006-01-02")),
					applogger.Error(err),
				)
			}
			continue
		}
		if e.Timestamp() == "" {
			e.SetTimestamp(r.Day.Format(time.RFC3339))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Append stamps incoming entries with the server time and merges them into
// the history key (dedupe by timestamp, FIFO trim handled by the store).
func (uc *HistoryUseCase) Append(ctx context.Context, key string, entries []models.HistoryEntry) ([]models.HistoryEntry, error) {
	return uc.store.AppendHistory(ctx, key, StampEntries(entries, uc.now()))
}

// RankMovement diffs the newest stored ranking against the oldest one.
// Entries that do not carry a ranked snapshot yield nil.
func RankMovement(entries []models.HistoryEntry) []models.RankDelta {
	if len(entries) == 0 {
		return nil
	}
	current := rankedEntries(entries[len(entries)-1])
	if len(current) == 0 {
		return nil
	}
	oldest := rankedEntries(entries[0])
	return RankDeltas(current, oldest, RankedEntryID)
}

func rankedEntries(e models.HistoryEntry) []models.RankedEntry {
	raw, ok := e["entries"]
	if !ok {
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var entries []models.RankedEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil
	}
	return entries
}

// StampEntries assigns the server timestamp to entries that arrive without
// one. Entries that already carry a timestamp keep it, so resubmitting the
// same snapshot dedupes to a single stored copy.
func StampEntries(entries []models.HistoryEntry, now time.Time) []models.HistoryEntry {
	ts := now.UTC().Format(time.RFC3339)
	for _, e := range entries {
		if e.Timestamp() == "" {
			e.SetTimestamp(ts)
		}
	}
	return entries
}
