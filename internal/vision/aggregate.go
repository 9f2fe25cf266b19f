package vision

import (
	"github.com/snaptaplaque/plateapi/internal/model"
)

// Summary is the serializable outcome of one pipeline run: the filename, the
// ordered accepted readings, and the record-level confidence (maximum reading
// confidence, absent when no reading survived).
type Summary struct {
	Filename   string               `json:"filename"`
	Readings   []model.PlateReading `json:"results"`
	Confidence *float64             `json:"confidence,omitempty"`
}

// Aggregate is a pure transform from accepted readings to the Summary that
// will be persisted. Detector order is preserved; under the "best" combine
// policy only the highest-confidence reading is kept (earliest wins ties, so
// the choice stays deterministic).
func Aggregate(filename string, readings []model.PlateReading, combine string) Summary {
	kept := make([]model.PlateReading, len(readings))
	copy(kept, readings)

	if combine == "best" && len(kept) > 1 {
		best := 0
		for i, reading := range kept {
			if reading.Confidence > kept[best].Confidence {
				best = i
			}
		}
		kept = kept[best : best+1]
	}

	summary := Summary{Filename: filename, Readings: kept}
	if len(kept) > 0 {
		max := kept[0].Confidence
		for _, reading := range kept[1:] {
			if reading.Confidence > max {
				max = reading.Confidence
			}
		}
		summary.Confidence = &max
	}
	return summary
}

// ResultSet converts the summary into the tagged persistence form.
func (s Summary) ResultSet() model.ResultSet {
	return model.NewResultSet(s.Readings)
}
