package repository

import (
	"distancemeter/internal/dto"
	"distancemeter/internal/model"
)

// MeasurementRepository defines the interface for stored measurement operations.
type MeasurementRepository interface {
	// Create operations
	Insert(m *model.Measurement) (int64, error)

	// Read operations
	GetByFilename(filename string) (*model.Measurement, error)
	GetAll(filter *dto.HistoryFilter) ([]model.Measurement, error)
	GetTotalCount(filter *dto.HistoryFilter) (int, error)
	GetTotalSize() (int64, error)
	GetSources() ([]string, error)
	GetStats() (*model.Stats, error)
	Exists(filename string) (bool, error)

	// Delete operations
	DeleteByFilename(filename string) error
	DeleteAll() error
}

// DetectionRepository defines the interface for detection data operations.
type DetectionRepository interface {
	// Create operations
	InsertBatch(detections []model.Detection) error

	// Read operations
	GetByMeasurementID(measurementID int64) ([]model.Detection, error)
	GetDistancesByMeasurementID(measurementID int64) ([]float64, error)
}
