// Package vision implements the plate recognition pipeline: image decoding,
// plate detection, OCR reading and result aggregation. Model inference runs
// through gocv; the Detector and Reader capabilities have deterministic stub
// implementations so everything above them can be tested without weights.
package vision

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Decode turns raw upload bytes into a BGR pixel matrix. The caller owns the
// returned Mat and must Close it. No resizing or color-space normalization
// happens here; callers receive exactly what the codec produced.
func Decode(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.Mat{}, fmt.Errorf("%w: empty buffer", ErrDecode)
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, fmt.Errorf("%w: unsupported or truncated data", ErrDecode)
	}
	return mat, nil
}
