package models

// HistoryEntry is one stored snapshot in a history array. Payloads are kept
// opaque; only the _timestamp field participates in dedupe and ordering.
type HistoryEntry map[string]any

// Timestamp returns the entry's _timestamp field, or "" when absent.
func (e HistoryEntry) Timestamp() string {
	if ts, ok := e["_timestamp"].(string); ok {
		return ts
	}
	return ""
}

// SetTimestamp assigns the server timestamp.
func (e HistoryEntry) SetTimestamp(ts string) { e["_timestamp"] = ts }

// RankedEntry is one row of an ordered snapshot; position in the stored
// array defines rank.
type RankedEntry struct {
	Rank  int     `json:"rank"`
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value"`
}

// RankSnapshot is one published ranking with its capture timestamp.
type RankSnapshot struct {
	Timestamp string        `json:"_timestamp"`
	Entries   []RankedEntry `json:"entries"`
}

// RankDelta reports movement against the oldest stored snapshot.
// New is set for entities absent from history; Delta is never used as a
// stand-in zero for them.
type RankDelta struct {
	ID      string `json:"id"`
	NewRank int    `json:"rank"`
	OldRank int    `json:"previous_rank,omitempty"`
	Delta   int    `json:"delta"`
	New     bool   `json:"new,omitempty"`
}
