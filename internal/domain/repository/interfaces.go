package repository

import (
	"context"
	"time"

	"taometrics/internal/domain/models"
)

// MetricStore reads and writes named JSON blobs in the shared KV store.
// Missing keys and malformed stored JSON both surface as kv.ErrNotFound;
// the serving path always prefers "no data yet" over a hard failure.
type MetricStore interface {
	GetJSON(ctx context.Context, key string, dest any) error
	GetRaw(ctx context.Context, key string) ([]byte, error)
	PutJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	History(ctx context.Context, key string, limit int) ([]models.HistoryEntry, error)
	AppendHistory(ctx context.Context, key string, entries []models.HistoryEntry) ([]models.HistoryEntry, error)
}

// ArchiveRow is one daily row of the long-term history archive.
type ArchiveRow struct {
	Day     time.Time
	Key     string
	Payload []byte
}

// ArchiveStore is the long-term daily history archive, one row per
// (day, key).
type ArchiveStore interface {
	Init(ctx context.Context) error
	InsertDaily(ctx context.Context, day time.Time, key string, payload []byte) error
	QueryRange(ctx context.Context, key string, from, to time.Time) ([]ArchiveRow, error)
	Health(ctx context.Context) error
}
