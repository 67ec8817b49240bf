package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"taometrics/internal/domain/models"
	"taometrics/pkg/kv"
	applogger "taometrics/pkg/logger"
)

func newTestStore(t *testing.T) (*kv.MemoryStore, *KVMetricStore) {
	t.Helper()
	mem := kv.NewMemoryStore()
	ms := NewKVMetricStore(mem, applogger.Nop(), nil, 3).(*KVMetricStore)
	return mem, ms
}

func TestGetJSONMissingKey(t *testing.T) {
	_, ms := newTestStore(t)
	var dest map[string]any
	err := ms.GetJSON(context.Background(), "nope", &dest)
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetJSONMalformedTreatedAsAbsent(t *testing.T) {
	mem, ms := newTestStore(t)
	if err := mem.PutRaw(context.Background(), "bad", []byte("{not json"), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	var dest map[string]any
	err := ms.GetJSON(context.Background(), "bad", &dest)
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected malformed JSON mapped to ErrNotFound, got %v", err)
	}
}

func TestAppendHistoryFIFOTrim(t *testing.T) {
	_, ms := newTestStore(t)
	ctx := context.Background()

	for _, ts := range []string{"t1", "t2", "t3"} {
		e := models.HistoryEntry{"v": ts}
		e.SetTimestamp(ts)
		if _, err := ms.AppendHistory(ctx, "hist", []models.HistoryEntry{e}); err != nil {
			t.Fatalf("append %s: %v", ts, err)
		}
	}

	e4 := models.HistoryEntry{"v": "t4"}
	e4.SetTimestamp("t4")
	merged, err := ms.AppendHistory(ctx, "hist", []models.HistoryEntry{e4})
	if err != nil {
		t.Fatalf("append t4: %v", err)
	}

	want := []string{"t2", "t3", "t4"}
	if len(merged) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(merged))
	}
	for i, ts := range want {
		if merged[i].Timestamp() != ts {
			t.Fatalf("entry %d: expected %s, got %s", i, ts, merged[i].Timestamp())
		}
	}
}

func TestAppendHistoryDedupeByTimestamp(t *testing.T) {
	_, ms := newTestStore(t)
	ctx := context.Background()

	e := models.HistoryEntry{"v": 1}
	e.SetTimestamp("2026-01-01T00:00:00Z")
	if _, err := ms.AppendHistory(ctx, "hist", []models.HistoryEntry{e}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	merged, err := ms.AppendHistory(ctx, "hist", []models.HistoryEntry{e})
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected exactly one stored copy, got %d", len(merged))
	}
}

func TestHistoryLimitNewestEntries(t *testing.T) {
	_, ms := newTestStore(t)
	ctx := context.Background()

	var batch []models.HistoryEntry
	for _, ts := range []string{"a", "b", "c"} {
		e := models.HistoryEntry{}
		e.SetTimestamp(ts)
		batch = append(batch, e)
	}
	if _, err := ms.AppendHistory(ctx, "hist", batch); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := ms.History(ctx, "hist", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 2 || got[0].Timestamp() != "b" || got[1].Timestamp() != "c" {
		t.Fatalf("expected newest two [b c], got %v", got)
	}
}

func TestPutJSONRoundTrip(t *testing.T) {
	_, ms := newTestStore(t)
	ctx := context.Background()

	in := models.SubnetSnapshot{Netuid: 5, Name: "five", EmissionDaily: 12.5}
	if err := ms.PutJSON(ctx, "subnet", in, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	var out models.SubnetSnapshot
	if err := ms.GetJSON(ctx, "subnet", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}
