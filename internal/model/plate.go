// Package model contains the struct definitions shared across packages.
package model

import (
	"encoding/json"
	"fmt"
)

// BoundingBox is a detector-proposed region in pixel coordinates. It is
// serialized as a compact [x, y, width, height] array, the shape the mobile
// client draws overlays from.
type BoundingBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// MarshalJSON encodes the box as [x, y, w, h].
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.X, b.Y, b.Width, b.Height})
}

// UnmarshalJSON decodes the [x, y, w, h] form.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var arr [4]int
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("decode bounding box: %w", err)
	}
	b.X, b.Y, b.Width, b.Height = arr[0], arr[1], arr[2], arr[3]
	return nil
}

// PlateCandidate is a region the detector believes contains a plate, with the
// detector's confidence in [0,1]. Candidates are transient; only readings
// derived from them are persisted.
type PlateCandidate struct {
	Box        BoundingBox
	Confidence float64
}

// PlateReading is a normalized plate text with its OCR confidence and the
// candidate box it was read from. Immutable once created.
type PlateReading struct {
	PlateText  string      `json:"plate_text"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"bounding_box"`
}
