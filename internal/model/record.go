package model

import "time"

// DetectionRecord is the persisted outcome of one image submission. Records
// are append-only: created once at the end of a successful pipeline run and
// never mutated.
type DetectionRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Filename  string    `json:"filename"`
	Results   ResultSet `json:"results"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry is one flattened history row: one per reading, or a single
// row with null text/confidence when the record found no plate. This is the
// shape the mobile client's history screen consumes.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	PlateText  *string   `json:"plate_text"`
	Confidence *float64  `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// FlattenHistory expands records into history entries, newest record first.
func FlattenHistory(records []*DetectionRecord) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		readings := rec.Results.Readings()
		if len(readings) == 0 {
			entries = append(entries, HistoryEntry{ID: rec.ID, CreatedAt: rec.CreatedAt})
			continue
		}
		for _, reading := range readings {
			text := reading.PlateText
			conf := reading.Confidence
			entries = append(entries, HistoryEntry{
				ID:         rec.ID,
				PlateText:  &text,
				Confidence: &conf,
				CreatedAt:  rec.CreatedAt,
			})
		}
	}
	return entries
}
