package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestResultSetRoundTrip(t *testing.T) {
	readings := []PlateReading{
		{PlateText: "AB-123-CD", Confidence: 0.95, Box: BoundingBox{X: 10, Y: 20, Width: 120, Height: 40}},
		{PlateText: "EF-456-GH", Confidence: 0.88, Box: BoundingBox{X: 200, Y: 30, Width: 110, Height: 38}},
	}
	set := NewResultSet(readings)

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"status":"plates"`) {
		t.Fatalf("expected plates tag, got %s", data)
	}
	// Boxes travel as [x, y, w, h] arrays.
	if !strings.Contains(string(data), `[10,20,120,40]`) {
		t.Fatalf("expected compact box encoding, got %s", data)
	}

	var decoded ResultSet
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := decoded.Readings()
	if len(got) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(got))
	}
	if got[0] != readings[0] || got[1] != readings[1] {
		t.Fatalf("readings changed across round trip: %+v", got)
	}
	if conf, ok := decoded.Confidence(); !ok || conf != 0.95 {
		t.Fatalf("expected confidence 0.95, got %v %v", conf, ok)
	}
}

func TestResultSetEmpty(t *testing.T) {
	set := NewResultSet(nil)
	if !set.Empty() {
		t.Fatalf("expected empty set")
	}
	if set.Readings() == nil {
		t.Fatalf("Readings must never return nil")
	}
	if _, ok := set.Confidence(); ok {
		t.Fatalf("empty set must have no confidence")
	}
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"status":"no_plate"}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}

func TestResultSetRejectsDisagreeingTag(t *testing.T) {
	cases := []string{
		`{"status":"no_plate","plates":[{"plate_text":"AB-123-CD","confidence":0.9,"bounding_box":[0,0,1,1]}]}`,
		`{"status":"plates"}`,
		`{"status":"plates","plates":[]}`,
		`{"status":"something_else"}`,
	}
	for _, payload := range cases {
		var set ResultSet
		if err := json.Unmarshal([]byte(payload), &set); err == nil {
			t.Fatalf("expected rejection for %s", payload)
		}
	}
}

func TestFlattenHistory(t *testing.T) {
	now := time.Now().UTC()
	records := []*DetectionRecord{
		{
			ID: 2,
			Results: NewResultSet([]PlateReading{
				{PlateText: "AB-123-CD", Confidence: 0.95},
				{PlateText: "EF-456-GH", Confidence: 0.88},
			}),
			CreatedAt: now,
		},
		{ID: 1, Results: NewResultSet(nil), CreatedAt: now.Add(-time.Minute)},
	}

	entries := FlattenHistory(records)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ID != 2 || entries[1].ID != 2 {
		t.Fatalf("readings of one record must share its id")
	}
	if *entries[0].PlateText != "AB-123-CD" || *entries[1].PlateText != "EF-456-GH" {
		t.Fatalf("reading order not preserved: %v %v", *entries[0].PlateText, *entries[1].PlateText)
	}
	// A record with no plate still produces exactly one row, with nulls.
	if entries[2].ID != 1 || entries[2].PlateText != nil || entries[2].Confidence != nil {
		t.Fatalf("expected null row for empty record, got %+v", entries[2])
	}

	if got := FlattenHistory(nil); got == nil || len(got) != 0 {
		t.Fatalf("empty history must flatten to an empty slice")
	}
}
