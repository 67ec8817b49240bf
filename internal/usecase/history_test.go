package usecase

import (
	"context"
	"testing"
	"time"

	"taometrics/internal/domain/models"
	"taometrics/internal/repository"
	"taometrics/pkg/kv"
	applogger "taometrics/pkg/logger"
)

func TestStampEntriesFillsMissingTimestamps(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	entries := []models.HistoryEntry{
		{"v": 1},
		{"v": 2, "_timestamp": "2026-08-01T00:00:00Z"},
	}

	stamped := StampEntries(entries, now)
	if got := stamped[0].Timestamp(); got != "2026-08-23T12:00:00Z" {
		t.Fatalf("missing timestamp not stamped: %s", got)
	}
	if got := stamped[1].Timestamp(); got != "2026-08-01T00:00:00Z" {
		t.Fatalf("client timestamp should be preserved: %s", got)
	}
}

func TestAppendIdempotentForSameTimestamp(t *testing.T) {
	ms := repository.NewKVMetricStore(kv.NewMemoryStore(), applogger.Nop(), nil, 0)
	uc := NewHistoryUseCase(ms, nil, applogger.Nop())
	ctx := context.Background()

	entry := models.HistoryEntry{"value": 42.0, "_timestamp": "2026-08-23T00:00:00Z"}
	if _, err := uc.Append(ctx, "hist", []models.HistoryEntry{entry}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	merged, err := uc.Append(ctx, "hist", []models.HistoryEntry{entry})
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected exactly one stored copy, got %d", len(merged))
	}
}

func TestRankMovementFromHistory(t *testing.T) {
	oldest := models.HistoryEntry{
		"_timestamp": "2026-08-01T00:00:00Z",
		"entries": []any{
			map[string]any{"rank": 1, "id": "B", "value": 10.0},
			map[string]any{"rank": 2, "id": "C", "value": 9.0},
			map[string]any{"rank": 3, "id": "A", "value": 8.0},
		},
	}
	newest := models.HistoryEntry{
		"_timestamp": "2026-08-23T00:00:00Z",
		"entries": []any{
			map[string]any{"rank": 1, "id": "A", "value": 12.0},
			map[string]any{"rank": 2, "id": "B", "value": 11.0},
			map[string]any{"rank": 3, "id": "C", "value": 10.0},
		},
	}

	deltas := RankMovement([]models.HistoryEntry{oldest, newest})
	if len(deltas) != 3 {
		t.Fatalf("expected 3 deltas, got %d", len(deltas))
	}
	if deltas[0].ID != "A" || deltas[0].Delta != 2 {
		t.Fatalf("A should improve by 2: %+v", deltas[0])
	}
}

func TestRankMovementWithoutRankedPayload(t *testing.T) {
	entries := []models.HistoryEntry{{"_timestamp": "x", "value": 1.0}}
	if got := RankMovement(entries); got != nil {
		t.Fatalf("expected nil for non-ranked history, got %v", got)
	}
	if got := RankMovement(nil); got != nil {
		t.Fatalf("expected nil for empty history, got %v", got)
	}
}

func TestArchivedNilWhenDisabled(t *testing.T) {
	ms := repository.NewKVMetricStore(kv.NewMemoryStore(), applogger.Nop(), nil, 0)
	uc := NewHistoryUseCase(ms, nil, applogger.Nop())

	entries, err := uc.Archived(context.Background(), "key", 30)
	if err != nil || entries != nil {
		t.Fatalf("disabled archive should return empty without error, got %v / %v", entries, err)
	}
}
