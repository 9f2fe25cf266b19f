package vision

import "errors"

var (
	// ErrDecode marks a buffer that could not be decoded into an image:
	// empty, truncated, or not a supported raster format.
	ErrDecode = errors.New("image decode failed")

	// ErrInferenceTimeout marks a pipeline run that exceeded the configured
	// inference deadline. No record is persisted for such a run.
	ErrInferenceTimeout = errors.New("inference deadline exceeded")

	// ErrModelUnavailable marks an engine whose model weights failed to load.
	ErrModelUnavailable = errors.New("model not loaded")
)
