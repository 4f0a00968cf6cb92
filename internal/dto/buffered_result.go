package dto

import "distancemeter/internal/measure"

// BufferedResult holds an annotated image and its detections before flushing to disk.
type BufferedResult struct {
	Timestamp    string
	Source       string
	Detections   []measure.Detection
	Measurements []measure.Measurement
	Data         []byte
}
