package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taometrics/internal/domain/models"
	domrepo "taometrics/internal/domain/repository"
	applogger "taometrics/pkg/logger"
	"taometrics/pkg/metrics"
)

// historySnapshots maps snapshot keys to the history key that receives a
// copy of each refresh.
var historySnapshots = map[string]string{
	domrepo.KeyTopSubnets:            domrepo.KeyTopSubnetsHistory,
	domrepo.KeyTopWallets:            domrepo.KeyTopWalletsHistory,
	domrepo.KeyTopValidators:         domrepo.KeyTopValidatorsHistory,
	domrepo.KeyDecentralizationScore: domrepo.KeyDecentralizationHist,
}

// SnapshotIngest consumes refresh messages published by the batch pipeline:
// message key = KV key name, value = the JSON payload. It writes the KV key,
// appends a history copy where one is kept, and archives the daily row.
type SnapshotIngest struct {
	store   domrepo.MetricStore
	archive domrepo.ArchiveStore // nil when the archive is disabled
	rec     *metrics.Recorder
	log     *applogger.Logger
	topic   string
	now     func() time.Time
}

func NewSnapshotIngest(store domrepo.MetricStore, archive domrepo.ArchiveStore, rec *metrics.Recorder, log *applogger.Logger, topic string) *SnapshotIngest {
	return &SnapshotIngest{
		store:   store,
		archive: archive,
		rec:     rec,
		log:     log,
		topic:   topic,
		now:     time.Now,
	}
}

func (h *SnapshotIngest) Topic() string { return h.topic }

// Handle processes one refresh message. Malformed messages are dropped, not
// retried; the pipeline republishes full snapshots every cycle.
func (h *SnapshotIngest) Handle(ctx context.Context, key, value []byte) error {
	kvKey := string(key)
	if kvKey == "" || !json.Valid(value) {
		if h.log != nil {
			h.log.Warn("dropping invalid snapshot message", applogger.String("key", kvKey))
		}
		return nil
	}

	if err := h.store.PutJSON(ctx, kvKey, json.RawMessage(value), 0); err != nil {
		return fmt.Errorf("snapshot write %s: %w", kvKey, err)
	}

	if histKey, ok := historySnapshots[kvKey]; ok {
		entry := toHistoryEntry(value)
		if _, err := h.store.AppendHistory(ctx, histKey, StampEntries([]models.HistoryEntry{entry}, h.now())); err != nil {
			return fmt.Errorf("history append %s: %w", histKey, err)
		}
	}

	// archive is best effort; a miss heals on the next refresh cycle
	if h.archive != nil {
		if err := h.archive.InsertDaily(ctx, h.now(), kvKey, value); err != nil && h.log != nil {
			h.log.Warn("archive insert failed", applogger.String("key", kvKey), applogger.Error(err))
		}
	}

	if h.rec != nil {
		h.rec.RecordSnapshotIngested(kvKey)
	}
	return nil
}

func toHistoryEntry(payload []byte) models.HistoryEntry {
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err == nil {
		return models.HistoryEntry(m)
	}
	var v any
	_ = json.Unmarshal(payload, &v)
	return models.HistoryEntry{"entries": v}
}
