package dto

import (
	"fmt"
	"strings"

	"distancemeter/internal/measure"
)

// MeasurementResult is the outcome of running the pipeline over one image.
type MeasurementResult struct {
	Source       string                `json:"source"`
	People       int                   `json:"people"`
	Distances    []string              `json:"distances"`
	Summary      string                `json:"summary"`
	Detections   []measure.Detection   `json:"detections"`
	Measurements []measure.Measurement `json:"measurements"`
	Image        []byte                `json:"-"`
	ImageBase64  string                `json:"image,omitempty"`
}

// Summary renders the people count and their distances for display,
// e.g. "Detected people: 2 (distances: 6.00m, 3.00m)".
func Summary(distances []string) string {
	text := fmt.Sprintf("Detected people: %d", len(distances))
	if len(distances) > 0 {
		text += fmt.Sprintf(" (distances: %s)", strings.Join(distances, ", "))
	}
	return text
}
