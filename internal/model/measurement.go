package model

import "time"

// Measurement represents one annotated result stored on disk.
type Measurement struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	FilePath  string    `json:"filepath"`
	FileSize  int64     `json:"filesize"`
	People    int       `json:"people"`
}

// Stats contains statistics about stored measurements.
type Stats struct {
	TotalMeasurements int            `json:"total_measurements"`
	TotalPeople       int            `json:"total_people"`
	TotalSizeBytes    int64          `json:"total_size_bytes"`
	PerSource         map[string]int `json:"per_source"`
	LabelCounts       map[string]int `json:"label_counts"`
	NearestMeters     float64        `json:"nearest_m"`
	AverageMeters     float64        `json:"average_m"`
}
