package measure

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidBox is returned for boxes that do not satisfy x1<x2 and y1<y2.
var ErrInvalidBox = errors.New("invalid bounding box")

// BoundingBox is an axis-aligned box in pixel coordinates.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// NewBoundingBox validates the corners and returns the box.
func NewBoundingBox(x1, y1, x2, y2 int) (BoundingBox, error) {
	if x1 >= x2 || y1 >= y2 {
		return BoundingBox{}, fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrInvalidBox, x1, y1, x2, y2)
	}
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}, nil
}

// Width is the pixel width used for distance estimation.
func (b BoundingBox) Width() int {
	return b.X2 - b.X1
}

// Height returns the pixel height of the box.
func (b BoundingBox) Height() int {
	return b.Y2 - b.Y1
}

// Rect converts the box to an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Detection is one object reported by the detector.
type Detection struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// NewDetection builds a detection, rejecting malformed boxes.
func NewDetection(label string, confidence float64, x1, y1, x2, y2 int) (Detection, error) {
	box, err := NewBoundingBox(x1, y1, x2, y2)
	if err != nil {
		return Detection{}, err
	}
	return Detection{Label: label, Confidence: confidence, Box: box}, nil
}

// FilterTracked returns the detections whose label matches the calibration's tracked class.
func FilterTracked(dets []Detection, c Calibration) []Detection {
	var out []Detection
	for _, d := range dets {
		if c.Tracks(d) {
			out = append(out, d)
		}
	}
	return out
}
