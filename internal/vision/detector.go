package vision

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"
	"sync"

	"gocv.io/x/gocv"

	"github.com/snaptaplaque/plateapi/internal/model"
)

// Detector locates plate candidates in a decoded image. Implementations
// return candidates ordered by descending confidence with the minimum
// confidence threshold already applied; an image with no qualifying region
// yields an empty slice and a nil error.
type Detector interface {
	Detect(ctx context.Context, img gocv.Mat) ([]model.PlateCandidate, error)
}

const detectorInputSize = 300

// dnnDetector runs a single-class plate detection net through gocv. A net is
// not safe for concurrent Forward calls, so each instance carries its own
// mutex and the engine pool hands an instance to one request at a time.
type dnnDetector struct {
	mu            sync.Mutex
	net           gocv.Net
	minConfidence float64
}

// NewDNNDetector loads the detection model from disk. configPath may be empty
// for self-contained formats such as ONNX.
func NewDNNDetector(modelPath, configPath string, minConfidence float64) (Detector, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: detector weights %s: %v", ErrModelUnavailable, modelPath, err)
	}
	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: read detector net %s", ErrModelUnavailable, modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("set detector backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("set detector target: %w", err)
	}
	return &dnnDetector{net: net, minConfidence: minConfidence}, nil
}

func (d *dnnDetector) Detect(ctx context.Context, img gocv.Mat) ([]model.PlateCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(img, 1.0/127.5, image.Pt(detectorInputSize, detectorInputSize),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// Each detection is a 7-float row: [batch, class, confidence, l, t, r, b]
	// with corner coordinates normalized to [0,1].
	reshaped := output.Reshape(1, output.Total()/7)
	defer reshaped.Close()

	imgW := float32(img.Cols())
	imgH := float32(img.Rows())
	var candidates []model.PlateCandidate
	for i := 0; i < reshaped.Rows(); i++ {
		confidence := float64(reshaped.GetFloatAt(i, 2))
		if confidence < d.minConfidence {
			continue
		}
		left := reshaped.GetFloatAt(i, 3) * imgW
		top := reshaped.GetFloatAt(i, 4) * imgH
		right := reshaped.GetFloatAt(i, 5) * imgW
		bottom := reshaped.GetFloatAt(i, 6) * imgH
		box := clampBox(int(left), int(top), int(right-left), int(bottom-top), img.Cols(), img.Rows())
		if box.Width <= 0 || box.Height <= 0 {
			continue
		}
		candidates = append(candidates, model.PlateCandidate{Box: box, Confidence: confidence})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates, nil
}

func (d *dnnDetector) Close() error {
	return d.net.Close()
}

// clampBox clips a box to the image bounds so candidate crops never index
// outside the pixel matrix.
func clampBox(x, y, w, h, imgW, imgH int) model.BoundingBox {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > imgW {
		w = imgW - x
	}
	if y+h > imgH {
		h = imgH - y
	}
	return model.BoundingBox{X: x, Y: y, Width: w, Height: h}
}
