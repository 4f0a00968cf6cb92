package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"distancemeter/internal/dto"
	"distancemeter/internal/model"
)

// MeasurementRepository implements repository.MeasurementRepository for SQLite.
type MeasurementRepository struct {
	db *DB
}

// NewMeasurementRepository creates a new SQLite measurement repository.
func NewMeasurementRepository(db *DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

// Insert adds a new measurement record to the database. Timestamps are stored in UTC.
func (r *MeasurementRepository) Insert(m *model.Measurement) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO measurements (filename, source, timestamp, filepath, filesize, people)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.Filename, m.Source, m.Timestamp.UTC(), m.FilePath, m.FileSize, m.People)
	if err != nil {
		return 0, fmt.Errorf("failed to insert measurement: %w", err)
	}

	return result.LastInsertId()
}

// GetByFilename retrieves a measurement by its result filename.
func (r *MeasurementRepository) GetByFilename(filename string) (*model.Measurement, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var m model.Measurement
	err := r.db.Conn().QueryRow(`
		SELECT id, filename, source, timestamp, filepath, filesize, people
		FROM measurements WHERE filename = ?
	`, filename).Scan(&m.ID, &m.Filename, &m.Source, &m.Timestamp, &m.FilePath, &m.FileSize, &m.People)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get measurement: %w", err)
	}
	m.Timestamp = m.Timestamp.Local()
	return &m, nil
}

// localDay returns midnight of t's calendar date in the server's time zone.
func localDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func utcBound(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// applyFilter appends the WHERE conditions for filter to query.
func applyFilter(query string, filter *dto.HistoryFilter) (string, []interface{}) {
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Source != "" {
		query += " AND m.source = ?"
		args = append(args, filter.Source)
	}

	if !filter.DateAfter.IsZero() {
		query += " AND julianday(m.timestamp) >= julianday(?)"
		args = append(args, utcBound(localDay(filter.DateAfter)))
	}

	if !filter.DateBefore.IsZero() {
		query += " AND julianday(m.timestamp) < julianday(?)"
		args = append(args, utcBound(localDay(filter.DateBefore).AddDate(0, 0, 1)))
	}

	if filter.MinDistance > 0 {
		query += " AND d.distance_m > 0 AND d.distance_m >= ?"
		args = append(args, filter.MinDistance)
	}

	if filter.MaxDistance > 0 {
		query += " AND d.distance_m > 0 AND d.distance_m <= ?"
		args = append(args, filter.MaxDistance)
	}

	return query, args
}

// GetAll retrieves measurements based on filter criteria, newest first.
func (r *MeasurementRepository) GetAll(filter *dto.HistoryFilter) ([]model.Measurement, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args := applyFilter(`
		SELECT DISTINCT m.id, m.filename, m.source, m.timestamp, m.filepath, m.filesize, m.people
		FROM measurements m
		LEFT JOIN detections d ON m.id = d.measurement_id
		WHERE 1=1
	`, filter)

	query += " ORDER BY m.timestamp DESC, m.id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	var measurements []model.Measurement
	for rows.Next() {
		var m model.Measurement
		if err := rows.Scan(&m.ID, &m.Filename, &m.Source, &m.Timestamp, &m.FilePath, &m.FileSize, &m.People); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		m.Timestamp = m.Timestamp.Local()
		measurements = append(measurements, m)
	}

	return measurements, rows.Err()
}

// GetTotalCount returns the total count of measurements matching the filter.
func (r *MeasurementRepository) GetTotalCount(filter *dto.HistoryFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args := applyFilter(`
		SELECT COUNT(DISTINCT m.id)
		FROM measurements m
		LEFT JOIN detections d ON m.id = d.measurement_id
		WHERE 1=1
	`, filter)

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count measurements: %w", err)
	}

	return count, nil
}

// GetTotalSize returns the combined size in bytes of all stored result images.
func (r *MeasurementRepository) GetTotalSize() (int64, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var size int64
	if err := r.db.Conn().QueryRow(`SELECT COALESCE(SUM(filesize), 0) FROM measurements`).Scan(&size); err != nil {
		return 0, fmt.Errorf("failed to sum sizes: %w", err)
	}
	return size, nil
}

// Exists checks if a measurement with the given filename exists.
func (r *MeasurementRepository) Exists(filename string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM measurements WHERE filename = ?`, filename).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check measurement existence: %w", err)
	}
	return count > 0, nil
}

// GetSources returns a list of unique measurement sources.
func (r *MeasurementRepository) GetSources() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT source FROM measurements ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

// GetStats returns statistics about stored measurements.
func (r *MeasurementRepository) GetStats() (*model.Stats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.Stats{
		PerSource:   make(map[string]int),
		LabelCounts: make(map[string]int),
	}

	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(people), 0), COALESCE(SUM(filesize), 0)
		FROM measurements
	`).Scan(&stats.TotalMeasurements, &stats.TotalPeople, &stats.TotalSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}

	err = r.db.Conn().QueryRow(`
		SELECT COALESCE(MIN(distance_m), 0), COALESCE(AVG(distance_m), 0)
		FROM detections WHERE distance_m > 0
	`).Scan(&stats.NearestMeters, &stats.AverageMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to query distances: %w", err)
	}

	// Measurements per source
	rows, err := r.db.Conn().Query(`SELECT source, COUNT(*) FROM measurements GROUP BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		stats.PerSource[source] = count
	}

	// Most detected labels
	labelRows, err := r.db.Conn().Query(`
		SELECT label, COUNT(*) as cnt
		FROM detections
		GROUP BY label
		ORDER BY cnt DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	defer labelRows.Close()

	for labelRows.Next() {
		var label string
		var count int
		if err := labelRows.Scan(&label, &count); err != nil {
			return nil, err
		}
		stats.LabelCounts[label] = count
	}

	return stats, nil
}

// DeleteByFilename removes a measurement by its result filename.
func (r *MeasurementRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	var id int64
	err := r.db.Conn().QueryRow(`SELECT id FROM measurements WHERE filename = ?`, filename).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get measurement id: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM detections WHERE measurement_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM measurements WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete measurement: %w", err)
	}
	return nil
}

// DeleteAll removes all measurements and their detections.
func (r *MeasurementRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM detections`); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM measurements`); err != nil {
		return fmt.Errorf("failed to delete measurements: %w", err)
	}

	return nil
}
