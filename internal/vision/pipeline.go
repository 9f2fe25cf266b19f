package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/snaptaplaque/plateapi/internal/model"
)

// Options tune one Pipeline instance.
type Options struct {
	// Combine is the OCR combine policy ("best" or "concat").
	Combine string
	// InferTimeout bounds engine acquisition plus detect and read.
	InferTimeout time.Duration
}

// Pipeline runs one submission through decode, detect, read and aggregate.
// Stages either complete fully or fail with a typed error; a failed run
// produces nothing to persist.
type Pipeline struct {
	pool *Pool
	opts Options
}

// NewPipeline wires a pipeline over an engine pool.
func NewPipeline(pool *Pool, opts Options) *Pipeline {
	return &Pipeline{pool: pool, opts: opts}
}

// Process executes the pipeline for one uploaded image. Per-candidate
// rejections (low confidence, pattern mismatch) are absorbed; an image where
// nothing survives yields a Summary with no readings, which is success.
func (p *Pipeline) Process(ctx context.Context, data []byte, filename string) (Summary, error) {
	img, err := Decode(data)
	if err != nil {
		return Summary{}, err
	}
	defer img.Close()

	inferCtx := ctx
	cancel := context.CancelFunc(func() {})
	if p.opts.InferTimeout > 0 {
		inferCtx, cancel = context.WithTimeout(ctx, p.opts.InferTimeout)
	}
	defer cancel()

	engine, err := p.pool.Acquire(inferCtx)
	if err != nil {
		return Summary{}, p.classify(ctx, inferCtx, err)
	}
	defer p.pool.Release(engine)

	candidates, err := engine.Detector.Detect(inferCtx, img)
	if err != nil {
		return Summary{}, p.classify(ctx, inferCtx, fmt.Errorf("detect: %w", err))
	}

	var accepted []model.PlateReading
	for _, candidate := range candidates {
		reading, err := engine.Reader.Read(inferCtx, img, candidate)
		if err != nil {
			return Summary{}, p.classify(ctx, inferCtx, fmt.Errorf("read candidate: %w", err))
		}
		if reading != nil {
			accepted = append(accepted, *reading)
		}
	}
	return Aggregate(filename, accepted, p.opts.Combine), nil
}

// classify rewrites inference-stage errors per the failure taxonomy: the
// request's own cancellation propagates untouched, a tripped inference
// deadline becomes ErrInferenceTimeout, everything else passes through.
func (p *Pipeline) classify(parent, infer context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) && errors.Is(infer.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}
	return err
}
