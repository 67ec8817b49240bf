package usecase

import (
	"context"
	"testing"
	"time"

	domrepo "taometrics/internal/domain/repository"
	"taometrics/internal/repository"
	"taometrics/pkg/kv"
	applogger "taometrics/pkg/logger"
)

func TestHandleWritesKeyAndHistory(t *testing.T) {
	ms := repository.NewKVMetricStore(kv.NewMemoryStore(), applogger.Nop(), nil, 0)
	ingest := NewSnapshotIngest(ms, nil, nil, applogger.Nop(), "snapshots")
	ingest.now = func() time.Time { return time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	payload := []byte(`{"top_subnets":[{"netuid":1}]}`)
	if err := ingest.Handle(ctx, []byte(domrepo.KeyTopSubnets), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}

	var stored map[string]any
	if err := ms.GetJSON(ctx, domrepo.KeyTopSubnets, &stored); err != nil {
		t.Fatalf("snapshot key not written: %v", err)
	}

	hist, err := ms.History(ctx, domrepo.KeyTopSubnetsHistory, 0)
	if err != nil || len(hist) != 1 {
		t.Fatalf("expected one history entry, got %d (%v)", len(hist), err)
	}
	if hist[0].Timestamp() == "" {
		t.Fatalf("history entry missing server timestamp")
	}
}

func TestHandleDropsMalformedMessage(t *testing.T) {
	ms := repository.NewKVMetricStore(kv.NewMemoryStore(), applogger.Nop(), nil, 0)
	ingest := NewSnapshotIngest(ms, nil, nil, applogger.Nop(), "snapshots")
	ctx := context.Background()

	if err := ingest.Handle(ctx, []byte("tao_price"), []byte("{broken")); err != nil {
		t.Fatalf("malformed payload must be dropped without error, got %v", err)
	}
	if err := ingest.Handle(ctx, nil, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("empty key must be dropped without error, got %v", err)
	}

	var dest map[string]any
	if err := ms.GetJSON(ctx, "tao_price", &dest); err == nil {
		t.Fatalf("malformed payload should not be stored")
	}
}

func TestHandlePlainKeyNoHistory(t *testing.T) {
	ms := repository.NewKVMetricStore(kv.NewMemoryStore(), applogger.Nop(), nil, 0)
	ingest := NewSnapshotIngest(ms, nil, nil, applogger.Nop(), "snapshots")
	ctx := context.Background()

	if err := ingest.Handle(ctx, []byte(domrepo.KeyTaoPrice), []byte(`{"usd": 412.5}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	hist, _ := ms.History(ctx, domrepo.KeyTaoPrice+"_history", 0)
	if len(hist) != 0 {
		t.Fatalf("price key should not publish history, got %d entries", len(hist))
	}
	var price map[string]float64
	if err := ms.GetJSON(ctx, domrepo.KeyTaoPrice, &price); err != nil || price["usd"] != 412.5 {
		t.Fatalf("price not stored: %v %v", price, err)
	}
}

func TestToHistoryEntryArrayPayload(t *testing.T) {
	e := toHistoryEntry([]byte(`[1,2,3]`))
	if _, ok := e["entries"]; !ok {
		t.Fatalf("array payload should be wrapped under entries: %v", e)
	}
}
