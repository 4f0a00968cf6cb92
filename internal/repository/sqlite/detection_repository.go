package sqlite

import (
	"fmt"

	"distancemeter/internal/model"
)

// DetectionRepository implements repository.DetectionRepository for SQLite.
type DetectionRepository struct {
	db *DB
}

// NewDetectionRepository creates a new SQLite detection repository.
func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

const insertDetection = `
	INSERT INTO detections (measurement_id, label, x1, y1, x2, y2, confidence, distance_m)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertBatch adds multiple detections in a single transaction.
func (r *DetectionRepository) InsertBatch(detections []model.Detection) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertDetection)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, det := range detections {
		if _, err := stmt.Exec(det.MeasurementID, det.Label, det.X1, det.Y1, det.X2, det.Y2, det.Confidence, det.DistanceMeters); err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	return tx.Commit()
}

// GetByMeasurementID retrieves all detections for a measurement.
func (r *DetectionRepository) GetByMeasurementID(measurementID int64) ([]model.Detection, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, measurement_id, label, x1, y1, x2, y2, confidence, distance_m
		FROM detections WHERE measurement_id = ? ORDER BY id
	`, measurementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []model.Detection
	for rows.Next() {
		var det model.Detection
		if err := rows.Scan(&det.ID, &det.MeasurementID, &det.Label, &det.X1, &det.Y1, &det.X2, &det.Y2, &det.Confidence, &det.DistanceMeters); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, det)
	}

	return detections, rows.Err()
}

// GetDistancesByMeasurementID returns the distances of a measurement's tracked detections, in insert order.
func (r *DetectionRepository) GetDistancesByMeasurementID(measurementID int64) ([]float64, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT distance_m FROM detections
		WHERE measurement_id = ? AND distance_m > 0
		ORDER BY id
	`, measurementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query distances: %w", err)
	}
	defer rows.Close()

	var distances []float64
	for rows.Next() {
		var d float64
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan distance: %w", err)
		}
		distances = append(distances, d)
	}

	return distances, rows.Err()
}
