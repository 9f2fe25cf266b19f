package vision

import (
	"context"
	"regexp"
	"sort"

	"gocv.io/x/gocv"

	"github.com/snaptaplaque/plateapi/internal/model"
)

// StubDetector is a deterministic Detector for tests and for running the API
// without model weights. It returns its canned candidates with the threshold
// contract applied, ignoring the image content.
type StubDetector struct {
	Candidates    []model.PlateCandidate
	MinConfidence float64
	Err           error
}

func (s *StubDetector) Detect(ctx context.Context, _ gocv.Mat) ([]model.PlateCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.PlateCandidate
	for _, cand := range s.Candidates {
		if cand.Confidence >= s.MinConfidence {
			out = append(out, cand)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

// StubReading is one canned OCR outcome keyed by the candidate box it
// pretends to have read.
type StubReading struct {
	Box        model.BoundingBox
	Text       string
	Confidence float64
}

// StubReader is a deterministic Reader. It looks up the candidate's box in
// its canned readings and pushes the result through the same Normalize gate
// the real reader uses, so threshold and pattern behavior match production.
type StubReader struct {
	Readings      []StubReading
	MinConfidence float64
	Pattern       *regexp.Regexp
	Err           error
}

func (s *StubReader) Read(ctx context.Context, _ gocv.Mat, candidate model.PlateCandidate) (*model.PlateReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	for _, reading := range s.Readings {
		if reading.Box == candidate.Box {
			return Normalize(reading.Text, reading.Confidence, candidate.Box, s.MinConfidence, s.Pattern), nil
		}
	}
	return nil, nil
}
