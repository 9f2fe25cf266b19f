package vision

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"testing"
	"time"

	"github.com/snaptaplaque/plateapi/internal/model"
)

var platePattern = regexp.MustCompile(`^[A-Z0-9-]{4,12}$`)

// testImage returns PNG bytes every codec can decode.
func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func stubPipeline(detector *StubDetector, reader *StubReader, opts Options) (*Pipeline, *Pool) {
	pool := NewPool([]*Engine{{Detector: detector, Reader: reader}})
	return NewPipeline(pool, opts), pool
}

func TestPipelineAcceptsReadings(t *testing.T) {
	boxA := model.BoundingBox{X: 10, Y: 20, Width: 120, Height: 40}
	boxB := model.BoundingBox{X: 200, Y: 30, Width: 110, Height: 38}
	detector := &StubDetector{
		Candidates: []model.PlateCandidate{
			{Box: boxA, Confidence: 0.95},
			{Box: boxB, Confidence: 0.88},
		},
		MinConfidence: 0.5,
	}
	reader := &StubReader{
		Readings: []StubReading{
			{Box: boxA, Text: "AB-123-CD", Confidence: 0.95},
			{Box: boxB, Text: "EF-456-GH", Confidence: 0.88},
		},
		MinConfidence: 0.5,
		Pattern:       platePattern,
	}
	pipeline, _ := stubPipeline(detector, reader, Options{Combine: "concat"})

	summary, err := pipeline.Process(context.Background(), testImage(t), "car.png")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(summary.Readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(summary.Readings))
	}
	if summary.Readings[0].PlateText != "AB-123-CD" || summary.Readings[1].PlateText != "EF-456-GH" {
		t.Fatalf("unexpected readings: %+v", summary.Readings)
	}
	if summary.Confidence == nil || *summary.Confidence != 0.95 {
		t.Fatalf("expected confidence 0.95, got %v", summary.Confidence)
	}
}

func TestPipelineNoPlateIsSuccess(t *testing.T) {
	detector := &StubDetector{MinConfidence: 0.5}
	reader := &StubReader{MinConfidence: 0.5, Pattern: platePattern}
	pipeline, _ := stubPipeline(detector, reader, Options{Combine: "concat"})

	summary, err := pipeline.Process(context.Background(), testImage(t), "empty.png")
	if err != nil {
		t.Fatalf("an image with no plate must not fail: %v", err)
	}
	if len(summary.Readings) != 0 {
		t.Fatalf("expected no readings, got %+v", summary.Readings)
	}
	if !summary.ResultSet().Empty() {
		t.Fatalf("expected no-plate result set")
	}
}

func TestPipelineAbsorbsRejectedReadings(t *testing.T) {
	boxA := model.BoundingBox{X: 10, Y: 20, Width: 120, Height: 40}
	boxB := model.BoundingBox{X: 200, Y: 30, Width: 110, Height: 38}
	detector := &StubDetector{
		Candidates: []model.PlateCandidate{
			{Box: boxA, Confidence: 0.9},
			{Box: boxB, Confidence: 0.3}, // below detector threshold
		},
		MinConfidence: 0.5,
	}
	reader := &StubReader{
		Readings: []StubReading{
			{Box: boxA, Text: "AB-123-CD", Confidence: 0.2}, // below OCR threshold
		},
		MinConfidence: 0.5,
		Pattern:       platePattern,
	}
	pipeline, _ := stubPipeline(detector, reader, Options{Combine: "concat"})

	summary, err := pipeline.Process(context.Background(), testImage(t), "weak.png")
	if err != nil {
		t.Fatalf("rejected candidates must be absorbed, not failed: %v", err)
	}
	if len(summary.Readings) != 0 {
		t.Fatalf("expected everything filtered, got %+v", summary.Readings)
	}
}

func TestPipelineCorruptImage(t *testing.T) {
	pipeline, _ := stubPipeline(&StubDetector{}, &StubReader{}, Options{})
	for _, data := range [][]byte{nil, []byte("definitely not an image")} {
		if _, err := pipeline.Process(context.Background(), data, "bad.bin"); !errors.Is(err, ErrDecode) {
			t.Fatalf("expected ErrDecode, got %v", err)
		}
	}
}

func TestPipelineDetectorFailure(t *testing.T) {
	pipeline, _ := stubPipeline(&StubDetector{Err: ErrModelUnavailable}, &StubReader{}, Options{})
	if _, err := pipeline.Process(context.Background(), testImage(t), "car.png"); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestPipelineTimeoutWhileWaitingForEngine(t *testing.T) {
	pipeline, pool := stubPipeline(&StubDetector{}, &StubReader{}, Options{InferTimeout: 20 * time.Millisecond})

	// Hold the only engine so the request has to wait past its deadline.
	engine, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer pool.Release(engine)

	_, err = pipeline.Process(context.Background(), testImage(t), "busy.png")
	if !errors.Is(err, ErrInferenceTimeout) {
		t.Fatalf("expected ErrInferenceTimeout, got %v", err)
	}
}

func TestPipelineClientCancellation(t *testing.T) {
	pipeline, _ := stubPipeline(&StubDetector{}, &StubReader{}, Options{InferTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Process(ctx, testImage(t), "gone.png")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrInferenceTimeout) {
		t.Fatalf("client cancellation must not be reported as a timeout")
	}
}
