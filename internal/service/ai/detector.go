// Package ai wraps the pretrained object detector behind a small interface.
package ai

import (
	"fmt"

	"distancemeter/internal/config"
	"distancemeter/internal/logger"
	"distancemeter/internal/measure"

	"gocv.io/x/gocv"
)

// Detector runs one inference over a decoded BGR image.
// Implementations are not safe for concurrent Detect calls.
type Detector interface {
	Detect(img gocv.Mat) ([]measure.Detection, error)
	Close() error
}

// NewDetector loads the model for the configured backend.
func NewDetector(cfg *config.Config, logger *logger.Logger) (Detector, error) {
	switch cfg.DetectorBackend {
	case config.BackendOpenCV:
		return NewOpenCVDetector(cfg, logger)
	case config.BackendONNX:
		return NewONNXDetector(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.DetectorBackend)
	}
}

func decodeOptions(cfg *config.Config, width, height int) DecodeOptions {
	return DecodeOptions{
		Labels:              COCOLabels,
		InputSize:           cfg.InputSize,
		ImageWidth:          width,
		ImageHeight:         height,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		NMSThreshold:        cfg.NMSThreshold,
	}
}

// anchorCount is the number of yolov8 predictions for a square input (strides 8, 16, 32).
func anchorCount(inputSize int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		side := inputSize / stride
		n += side * side
	}
	return n
}
