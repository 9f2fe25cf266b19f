package vision

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"regexp"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"github.com/snaptaplaque/plateapi/internal/model"
)

// Reader turns one candidate region into a normalized plate reading.
// A reading that fails the plate pattern or falls below the minimum OCR
// confidence is dropped: Read returns (nil, nil) and the request continues
// with the remaining candidates.
type Reader interface {
	Read(ctx context.Context, img gocv.Mat, candidate model.PlateCandidate) (*model.PlateReading, error)
}

// OCR input geometry, matching the common LPRNet-style export.
const (
	readerInputWidth  = 94
	readerInputHeight = 24
)

// ocrReader runs a character-sequence recognition net over the cropped plate
// region and decodes it greedily: per position take the most probable
// character, then collapse repeats and blanks. The last charset entry acts
// as the blank token.
type ocrReader struct {
	mu            sync.Mutex
	net           gocv.Net
	charset       []rune
	minConfidence float64
	pattern       *regexp.Regexp
}

// NewOCRReader loads the recognition model from disk.
func NewOCRReader(modelPath, charset string, minConfidence float64, pattern *regexp.Regexp) (Reader, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: reader weights %s: %v", ErrModelUnavailable, modelPath, err)
	}
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("%w: read OCR net %s", ErrModelUnavailable, modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("set reader backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("set reader target: %w", err)
	}
	runes := []rune(charset)
	if len(runes) < 2 {
		net.Close()
		return nil, fmt.Errorf("reader charset too short: %q", charset)
	}
	return &ocrReader{
		net:           net,
		charset:       runes,
		minConfidence: minConfidence,
		pattern:       pattern,
	}, nil
}

func (r *ocrReader) Read(ctx context.Context, img gocv.Mat, candidate model.PlateCandidate) (*model.PlateReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rect := image.Rect(candidate.Box.X, candidate.Box.Y,
		candidate.Box.X+candidate.Box.Width, candidate.Box.Y+candidate.Box.Height)
	roi := img.Region(rect)
	defer roi.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(roi, &resized, image.Pt(readerInputWidth, readerInputHeight), 0, 0, gocv.InterpolationLinear)

	blob := gocv.BlobFromImage(resized, 1.0/127.5, image.Pt(readerInputWidth, readerInputHeight),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), false, false)
	defer blob.Close()

	r.net.SetInput(blob, "")
	output := r.net.Forward("")
	defer output.Close()

	text, confidence := r.decode(output)
	return Normalize(text, confidence, candidate.Box, r.minConfidence, r.pattern), nil
}

// decode walks the [classes x positions] score matrix: greedy argmax per
// position with softmax confidence, then repeat/blank collapse.
func (r *ocrReader) decode(output gocv.Mat) (string, float64) {
	classes := len(r.charset)
	total := output.Total()
	if classes == 0 || total%classes != 0 {
		return "", 0
	}
	positions := total / classes
	scores := output.Reshape(1, classes)
	defer scores.Close()

	blank := classes - 1
	var builder strings.Builder
	var confSum float64
	var confCount int
	prev := blank
	for pos := 0; pos < positions; pos++ {
		best := 0
		for class := 1; class < classes; class++ {
			if scores.GetFloatAt(class, pos) > scores.GetFloatAt(best, pos) {
				best = class
			}
		}
		if best != blank && best != prev {
			builder.WriteRune(r.charset[best])
			confSum += softmaxAt(scores, best, pos, classes)
			confCount++
		}
		prev = best
	}
	if confCount == 0 {
		return "", 0
	}
	return builder.String(), confSum / float64(confCount)
}

// softmaxAt returns the softmax probability of one class within a column.
func softmaxAt(scores gocv.Mat, class, pos, classes int) float64 {
	var max float32
	for c := 0; c < classes; c++ {
		if v := scores.GetFloatAt(c, pos); c == 0 || v > max {
			max = v
		}
	}
	var sum float64
	for c := 0; c < classes; c++ {
		sum += math.Exp(float64(scores.GetFloatAt(c, pos) - max))
	}
	if sum == 0 {
		return 0
	}
	return math.Exp(float64(scores.GetFloatAt(class, pos)-max)) / sum
}

func (r *ocrReader) Close() error {
	return r.net.Close()
}

// Normalize applies the reading acceptance rules shared by every Reader
// implementation: trim and uppercase the text, strip interior whitespace,
// then gate on the plate pattern and the minimum OCR confidence. It returns
// nil when the reading is dropped.
func Normalize(text string, confidence float64, box model.BoundingBox, minConfidence float64, pattern *regexp.Regexp) *model.PlateReading {
	normalized := strings.ToUpper(strings.Join(strings.Fields(text), ""))
	if normalized == "" {
		return nil
	}
	if confidence < minConfidence {
		return nil
	}
	if pattern != nil && !pattern.MatchString(normalized) {
		return nil
	}
	return &model.PlateReading{PlateText: normalized, Confidence: confidence, Box: box}
}
