package vision

import (
	"context"
	"io"
)

// Engine couples one detector instance with one reader instance. Model nets
// are not safely reentrant, so an engine serves a single request at a time;
// the Pool below enforces that.
type Engine struct {
	Detector Detector
	Reader   Reader
}

// Close releases any model resources the engine holds.
func (e *Engine) Close() error {
	var first error
	for _, dep := range []any{e.Detector, e.Reader} {
		if closer, ok := dep.(io.Closer); ok {
			if err := closer.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Pool is a bounded set of engines. Requests acquire an engine before running
// inference and block (honoring their context) when all engines are busy.
type Pool struct {
	engines chan *Engine
	size    int
}

// NewPool builds a pool from pre-constructed engines.
func NewPool(engines []*Engine) *Pool {
	ch := make(chan *Engine, len(engines))
	for _, e := range engines {
		ch <- e
	}
	return &Pool{engines: ch, size: len(engines)}
}

// Acquire blocks until an engine is free or the context is done.
func (p *Pool) Acquire(ctx context.Context) (*Engine, error) {
	select {
	case engine := <-p.engines:
		return engine, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an engine to the pool.
func (p *Pool) Release(engine *Engine) {
	p.engines <- engine
}

// Size reports the number of engines the pool owns.
func (p *Pool) Size() int {
	return p.size
}

// Close drains the pool and closes every engine. Callers must ensure no
// request still holds an engine.
func (p *Pool) Close() error {
	var first error
	for i := 0; i < p.size; i++ {
		engine := <-p.engines
		if err := engine.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
