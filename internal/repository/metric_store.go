package repository

import (
	"context"
	"encoding/json"
	"time"

	"taometrics/internal/domain/models"
	"taometrics/internal/domain/repository"
	"taometrics/pkg/kv"
	applogger "taometrics/pkg/logger"
	"taometrics/pkg/metrics"
)

// KVMetricStore implements MetricStore over the shared KV store.
type KVMetricStore struct {
	store      kv.Store
	log        *applogger.Logger
	rec        *metrics.Recorder
	maxHistory int
}

// NewKVMetricStore creates a metric store. maxHistory bounds history arrays;
// values <= 0 fall back to 672 entries.
func NewKVMetricStore(store kv.Store, log *applogger.Logger, rec *metrics.Recorder, maxHistory int) repository.MetricStore {
	if maxHistory <= 0 {
		maxHistory = 672
	}
	return &KVMetricStore{store: store, log: log, rec: rec, maxHistory: maxHistory}
}

// GetJSON fetches and decodes a key. Malformed stored JSON is logged and
// reported as kv.ErrNotFound so callers take the fallback path instead of
// failing the request.
func (s *KVMetricStore) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := s.store.GetRaw(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.warnMalformed(key, err)
		return kv.ErrNotFound
	}
	return nil
}

func (s *KVMetricStore) GetRaw(ctx context.Context, key string) ([]byte, error) {
	return s.store.GetRaw(ctx, key)
}

func (s *KVMetricStore) PutJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	return s.store.PutJSON(ctx, key, v, ttl)
}

// History returns the newest limit entries of a history key, oldest first.
// A missing or malformed key yields an empty slice, never an error.
func (s *KVMetricStore) History(ctx context.Context, key string, limit int) ([]models.HistoryEntry, error) {
	entries := s.readHistory(ctx, key)
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// AppendHistory merges new entries into a history key with read-modify-write
// on the single key: dedupe by timestamp (first copy wins), then FIFO-trim to
// the configured maximum. Best-effort, last-writer-wins; the write path is a
// low-frequency ingestion job, not a hot path.
func (s *KVMetricStore) AppendHistory(ctx context.Context, key string, entries []models.HistoryEntry) ([]models.HistoryEntry, error) {
	merged := mergeHistory(s.readHistory(ctx, key), entries, s.maxHistory)
	if err := s.store.PutJSON(ctx, key, merged, 0); err != nil {
		if s.rec != nil {
			s.rec.RecordStoreError("history_write")
		}
		return nil, err
	}
	return merged, nil
}

func (s *KVMetricStore) readHistory(ctx context.Context, key string) []models.HistoryEntry {
	raw, err := s.store.GetRaw(ctx, key)
	if err != nil {
		return nil
	}
	var entries []models.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.warnMalformed(key, err)
		return nil
	}
	return entries
}

func (s *KVMetricStore) warnMalformed(key string, err error) {
	if s.rec != nil {
		s.rec.RecordStoreError("malformed_json")
	}
	if s.log != nil {
		s.log.Warn("malformed stored JSON, treating as absent",
			applogger.String("key", key),
			applogger.Error(err),
		)
	}
}

// mergeHistory appends new entries to existing ones, dropping any whose
// timestamp is already present, and evicts the oldest entries beyond max.
func mergeHistory(existing, incoming []models.HistoryEntry, max int) []models.HistoryEntry {
	seen := make(map[string]bool, len(existing)+len(incoming))
	merged := make([]models.HistoryEntry, 0, len(existing)+len(incoming))
	for _, e := range append(existing, incoming...) {
		ts := e.Timestamp()
		if ts != "" && seen[ts] {
			continue
		}
		seen[ts] = true
		merged = append(merged, e)
	}
	if max > 0 && len(merged) > max {
		merged = merged[len(merged)-max:]
	}
	return merged
}
