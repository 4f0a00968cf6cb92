package ai

import (
	"fmt"
	"math"
	"sort"

	"distancemeter/internal/measure"
)

// DecodeOptions controls how a raw yolov8 output tensor becomes detections.
type DecodeOptions struct {
	Labels              []string
	InputSize           int // network input side, coordinates in the tensor are in this space
	ImageWidth          int
	ImageHeight         int
	ConfidenceThreshold float64
	NMSThreshold        float64
}

type candidate struct {
	classID int
	score   float64
	x1, y1  float64
	x2, y2  float64
}

// DecodeYOLOv8 turns a [1, 4+C, N] channel-major output into detections in
// source-image pixels. Boxes are clamped to the image and degenerate boxes are dropped.
func DecodeYOLOv8(data []float32, channels, anchors int, opts DecodeOptions) ([]measure.Detection, error) {
	if channels <= 4 || anchors <= 0 {
		return nil, fmt.Errorf("unexpected output shape [1, %d, %d]", channels, anchors)
	}
	if len(data) != channels*anchors {
		return nil, fmt.Errorf("unexpected output length: got %d, want %d", len(data), channels*anchors)
	}
	if opts.InputSize <= 0 || opts.ImageWidth <= 0 || opts.ImageHeight <= 0 {
		return nil, fmt.Errorf("invalid decode geometry: input %d, image %dx%d", opts.InputSize, opts.ImageWidth, opts.ImageHeight)
	}

	scaleX := float64(opts.ImageWidth) / float64(opts.InputSize)
	scaleY := float64(opts.ImageHeight) / float64(opts.InputSize)
	numClasses := channels - 4

	var candidates []candidate
	for i := 0; i < anchors; i++ {
		bestClass, bestScore := -1, 0.0
		for c := 0; c < numClasses; c++ {
			score := float64(data[(4+c)*anchors+i])
			if score > bestScore {
				bestClass, bestScore = c, score
			}
		}
		if bestClass < 0 || bestScore < opts.ConfidenceThreshold {
			continue
		}

		cx := float64(data[i])
		cy := float64(data[anchors+i])
		w := float64(data[2*anchors+i])
		h := float64(data[3*anchors+i])

		candidates = append(candidates, candidate{
			classID: bestClass,
			score:   bestScore,
			x1:      clamp((cx-w/2)*scaleX, 0, float64(opts.ImageWidth)),
			y1:      clamp((cy-h/2)*scaleY, 0, float64(opts.ImageHeight)),
			x2:      clamp((cx+w/2)*scaleX, 0, float64(opts.ImageWidth)),
			y2:      clamp((cy+h/2)*scaleY, 0, float64(opts.ImageHeight)),
		})
	}

	kept := nonMaxSuppression(candidates, opts.NMSThreshold)

	results := make([]measure.Detection, 0, len(kept))
	for _, c := range kept {
		det, err := measure.NewDetection(
			getClassLabel(opts.Labels, c.classID),
			c.score,
			int(math.Round(c.x1)), int(math.Round(c.y1)),
			int(math.Round(c.x2)), int(math.Round(c.y2)),
		)
		if err != nil {
			// collapsed to nothing after clamping
			continue
		}
		results = append(results, det)
	}
	return results, nil
}

// nonMaxSuppression keeps the best box of every overlapping group within a class.
// The result is ordered by descending score.
func nonMaxSuppression(candidates []candidate, iouThreshold float64) []candidate {
	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].score > sorted[j].score
	})

	suppressed := make([]bool, len(sorted))
	var kept []candidate
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].classID != sorted[i].classID {
				continue
			}
			if iou(sorted[i], sorted[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

func iou(a, b candidate) float64 {
	ix1 := math.Max(a.x1, b.x1)
	iy1 := math.Max(a.y1, b.y1)
	ix2 := math.Min(a.x2, b.x2)
	iy2 := math.Min(a.y2, b.y2)

	inter := math.Max(0, ix2-ix1) * math.Max(0, iy2-iy1)
	union := (a.x2-a.x1)*(a.y2-a.y1) + (b.x2-b.x1)*(b.y2-b.y1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
