package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taometrics/internal/domain/repository"
)

// ClickHouseArchive implements ArchiveStore: one payload row per (key, day),
// standing in for the original object-storage bucket keyed YYYY/MM/DD.json.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseArchive creates the archive over an existing connection pool.
func NewClickHouseArchive(db *sql.DB, table string) repository.ArchiveStore {
	if table == "" {
		table = "metric_history"
	}
	return &ClickHouseArchive{db: db, table: table}
}

func (a *ClickHouseArchive) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		day Date,
		key String,
		payload String,
		inserted_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(inserted_at)
	ORDER BY (key, day)`, a.table)
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("archive init: %w", err)
	}
	return nil
}

// InsertDaily upserts the day's payload for a key; ReplacingMergeTree keeps
// the latest insert per (key, day).
func (a *ClickHouseArchive) InsertDaily(ctx context.Context, day time.Time, key string, payload []byte) error {
	q := fmt.Sprintf("INSERT INTO %s (day, key, payload) VALUES (?, ?, ?)", a.table)
	if _, err := a.db.ExecContext(ctx, q, day.UTC().Truncate(24*time.Hour), key, string(payload)); err != nil {
		return fmt.Errorf("archive insert %s: %w", key, err)
	}
	return nil
}

func (a *ClickHouseArchive) QueryRange(ctx context.Context, key string, from, to time.Time) ([]repository.ArchiveRow, error) {
	q := fmt.Sprintf(`SELECT day, key, payload FROM %s FINAL
		WHERE key = ? AND day >= ? AND day <= ?
		ORDER BY day ASC`, a.table)
	rows, err := a.db.QueryContext(ctx, q, key, from.UTC().Truncate(24*time.Hour), to.UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("archive query %s: %w", key, err)
	}
	defer rows.Close()

	var out []repository.ArchiveRow
	for rows.Next() {
		var r repository.ArchiveRow
		var payload string
		if err := rows.Scan(&r.Day, &r.Key, &payload); err != nil {
			return nil, err
		}
		r.Payload = []byte(payload)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}
