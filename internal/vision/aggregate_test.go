package vision

import (
	"testing"

	"github.com/snaptaplaque/plateapi/internal/model"
)

func TestAggregateConcat(t *testing.T) {
	readings := []model.PlateReading{
		{PlateText: "AB-123-CD", Confidence: 0.80},
		{PlateText: "EF-456-GH", Confidence: 0.95},
		{PlateText: "IJ-789-KL", Confidence: 0.70},
	}
	summary := Aggregate("car.jpg", readings, "concat")
	if summary.Filename != "car.jpg" {
		t.Fatalf("filename lost: %q", summary.Filename)
	}
	if len(summary.Readings) != 3 {
		t.Fatalf("expected all readings kept, got %d", len(summary.Readings))
	}
	// Detector order is preserved even when confidences are not sorted.
	for i, want := range []string{"AB-123-CD", "EF-456-GH", "IJ-789-KL"} {
		if summary.Readings[i].PlateText != want {
			t.Fatalf("order changed at %d: got %q want %q", i, summary.Readings[i].PlateText, want)
		}
	}
	if summary.Confidence == nil || *summary.Confidence != 0.95 {
		t.Fatalf("record confidence must be the maximum, got %v", summary.Confidence)
	}
}

func TestAggregateBest(t *testing.T) {
	readings := []model.PlateReading{
		{PlateText: "AB-123-CD", Confidence: 0.95},
		{PlateText: "EF-456-GH", Confidence: 0.95},
		{PlateText: "IJ-789-KL", Confidence: 0.70},
	}
	summary := Aggregate("car.jpg", readings, "best")
	if len(summary.Readings) != 1 {
		t.Fatalf("best policy must keep one reading, got %d", len(summary.Readings))
	}
	// Ties go to the earliest reading so repeated runs agree.
	if summary.Readings[0].PlateText != "AB-123-CD" {
		t.Fatalf("tie must keep the earliest reading, got %q", summary.Readings[0].PlateText)
	}
}

func TestAggregateEmpty(t *testing.T) {
	summary := Aggregate("empty.jpg", nil, "concat")
	if summary.Readings == nil {
		t.Fatalf("readings must never be nil")
	}
	if len(summary.Readings) != 0 {
		t.Fatalf("expected no readings, got %d", len(summary.Readings))
	}
	if summary.Confidence != nil {
		t.Fatalf("empty summary must carry no confidence")
	}
	if !summary.ResultSet().Empty() {
		t.Fatalf("expected empty result set")
	}
}

func TestAggregateDoesNotAliasInput(t *testing.T) {
	readings := []model.PlateReading{{PlateText: "AB-123-CD", Confidence: 0.9}}
	summary := Aggregate("car.jpg", readings, "concat")
	readings[0].PlateText = "mutated"
	if summary.Readings[0].PlateText != "AB-123-CD" {
		t.Fatalf("summary must own its readings")
	}
}
