package model

import (
	"encoding/json"
	"fmt"
)

// Results status tags used in the persisted JSON column.
const (
	statusNoPlate = "no_plate"
	statusPlates  = "plates"
)

// ResultSet is the tagged outcome of one pipeline run: either no plate was
// found, or an ordered, non-empty list of readings. The tag keeps the stored
// column self-describing so a reader can never observe a half-typed payload.
type ResultSet struct {
	readings []PlateReading
}

// NewResultSet builds a ResultSet from readings in detector order. A nil or
// empty slice yields the no-plate variant.
func NewResultSet(readings []PlateReading) ResultSet {
	if len(readings) == 0 {
		return ResultSet{}
	}
	out := make([]PlateReading, len(readings))
	copy(out, readings)
	return ResultSet{readings: out}
}

// Readings returns the ordered readings. The result is never nil; empty means
// no plate was found.
func (r ResultSet) Readings() []PlateReading {
	if r.readings == nil {
		return []PlateReading{}
	}
	out := make([]PlateReading, len(r.readings))
	copy(out, r.readings)
	return out
}

// Empty reports whether the run found no plate.
func (r ResultSet) Empty() bool {
	return len(r.readings) == 0
}

// Confidence returns the record-level confidence: the maximum reading
// confidence, or (0, false) when the set is empty.
func (r ResultSet) Confidence() (float64, bool) {
	if len(r.readings) == 0 {
		return 0, false
	}
	max := r.readings[0].Confidence
	for _, reading := range r.readings[1:] {
		if reading.Confidence > max {
			max = reading.Confidence
		}
	}
	return max, true
}

type resultSetWire struct {
	Status string         `json:"status"`
	Plates []PlateReading `json:"plates,omitempty"`
}

// MarshalJSON encodes the tagged form: {"status":"no_plate"} or
// {"status":"plates","plates":[...]}.
func (r ResultSet) MarshalJSON() ([]byte, error) {
	wire := resultSetWire{Status: statusNoPlate}
	if len(r.readings) > 0 {
		wire.Status = statusPlates
		wire.Plates = r.readings
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the tagged form, rejecting payloads whose tag and
// plate list disagree.
func (r *ResultSet) UnmarshalJSON(data []byte) error {
	var wire resultSetWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode result set: %w", err)
	}
	switch wire.Status {
	case statusNoPlate:
		if len(wire.Plates) > 0 {
			return fmt.Errorf("result set tagged %q carries %d plates", wire.Status, len(wire.Plates))
		}
		r.readings = nil
	case statusPlates:
		if len(wire.Plates) == 0 {
			return fmt.Errorf("result set tagged %q carries no plates", wire.Status)
		}
		r.readings = wire.Plates
	default:
		return fmt.Errorf("unknown result set status %q", wire.Status)
	}
	return nil
}
