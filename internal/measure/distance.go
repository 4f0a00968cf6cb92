// Package measure holds the camera calibration, the detection value type and
// the pinhole-camera distance estimate used by every front end.
package measure

import "fmt"

const (
	// DefaultFocalLength is the focal length in pixels. Uncalibrated.
	DefaultFocalLength = 600.0
	// DefaultKnownWidth is the assumed shoulder width of a person in centimetres.
	DefaultKnownWidth = 50.0
	// DefaultTrackedClass is the only label that gets a distance.
	DefaultTrackedClass = "person"
)

// Calibration is the fixed configuration consumed by the estimator and the annotator.
type Calibration struct {
	FocalLength  float64 // pixels
	KnownWidth   float64 // centimetres
	TrackedClass string
}

// DefaultCalibration returns the built-in constants.
func DefaultCalibration() Calibration {
	return Calibration{
		FocalLength:  DefaultFocalLength,
		KnownWidth:   DefaultKnownWidth,
		TrackedClass: DefaultTrackedClass,
	}
}

// Validate reports whether the calibration can produce meaningful distances.
func (c Calibration) Validate() error {
	if c.FocalLength <= 0 {
		return fmt.Errorf("focal length must be positive, got %v", c.FocalLength)
	}
	if c.KnownWidth <= 0 {
		return fmt.Errorf("known width must be positive, got %v", c.KnownWidth)
	}
	if c.TrackedClass == "" {
		return fmt.Errorf("tracked class must not be empty")
	}
	return nil
}

// Tracks reports whether a detection belongs to the tracked class.
func (c Calibration) Tracks(det Detection) bool {
	return det.Label == c.TrackedClass
}

// Distance returns the estimated distance to det in centimetres.
func (c Calibration) Distance(det Detection) float64 {
	return EstimateDistance(c.FocalLength, c.KnownWidth, det.Box.Width())
}

// EstimateDistance applies the similar-triangles relation
// distance = realWidth * focalLength / pixelWidth.
// The result is in the unit of realWidth. A zero pixel width yields 0.
func EstimateDistance(focalLength, realWidth float64, pixelWidth int) float64 {
	if pixelWidth == 0 {
		return 0
	}
	return (realWidth * focalLength) / float64(pixelWidth)
}

// ToMeters converts centimetres to meters.
func ToMeters(cm float64) float64 {
	return cm / 100
}

// FormatMeters renders a centimetre distance as meters with two decimals, e.g. "6.00m".
func FormatMeters(cm float64) string {
	return fmt.Sprintf("%.2fm", ToMeters(cm))
}
