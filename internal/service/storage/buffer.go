package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"distancemeter/internal/config"
	"distancemeter/internal/dto"
	"distancemeter/internal/logger"
	"distancemeter/internal/model"
	"distancemeter/internal/repository"
)

const defaultFlushInterval = 30 * time.Second

// BufferService buffers annotated results in memory and periodically flushes them to disk.
type BufferService struct {
	resultsDir    string
	limit         int
	interval      time.Duration
	results       []dto.BufferedResult
	lastStamp     time.Time
	mu            sync.Mutex
	logger        *logger.Logger
	measureRepo   repository.MeasurementRepository
	detectionRepo repository.DetectionRepository
}

// NewBufferService creates a new BufferService writing to the configured result directory.
// The repositories may be nil, in which case results are only written to disk.
func NewBufferService(config *config.Config, logger *logger.Logger, measureRepo repository.MeasurementRepository, detectionRepo repository.DetectionRepository) *BufferService {
	limit := config.ResultBufferLimit
	if limit <= 0 {
		limit = 1
	}
	interval := config.FlushInterval()
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	return &BufferService{
		resultsDir:    config.ResultDirectory,
		limit:         limit,
		interval:      interval,
		results:       make([]dto.BufferedResult, 0, limit),
		logger:        logger,
		measureRepo:   measureRepo,
		detectionRepo: detectionRepo,
	}
}

// Run starts a ticker loop that periodically flushes results to disk.
// Remaining results are flushed when ctx is cancelled.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush()
		case <-ctx.Done():
			s.Flush()
			return
		}
	}
}

// Add appends a result to the in-memory buffer and returns the filename it will be stored under.
// A full buffer is flushed immediately. If an earlier flush failed and the buffer
// is still full, the oldest result is dropped so memory stays bounded by the limit.
func (s *BufferService) Add(result dto.BufferedResult) string {
	s.mu.Lock()
	if result.Timestamp == "" {
		result.Timestamp = s.nextStamp().Format(TimestampLayout)
	}
	for len(s.results) >= s.limit {
		oldest := s.results[0]
		s.logger.Warning("Result buffer full, dropping %s",
			ResultFilename(oldest.Timestamp, oldest.Source, len(oldest.Measurements)))
		s.results = append(s.results[:0], s.results[1:]...)
	}
	s.results = append(s.results, result)
	full := len(s.results) >= s.limit
	s.logger.Info("Result buffer size: %d/%d", len(s.results), s.limit)
	s.mu.Unlock()

	if full {
		s.Flush()
	}

	return ResultFilename(result.Timestamp, result.Source, len(result.Measurements))
}

// nextStamp returns the current time, bumped so that no two results share a millisecond.
func (s *BufferService) nextStamp() time.Time {
	now := time.Now().Truncate(time.Millisecond)
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Millisecond)
	}
	s.lastStamp = now
	return now
}

// Pending returns the number of buffered results not yet written.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Flush writes buffered results to disk and records them in the repositories.
// It returns the number of results saved.
func (s *BufferService) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.results) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.resultsDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	savedCount := 0
	for _, result := range s.results {
		filename := ResultFilename(result.Timestamp, result.Source, len(result.Measurements))
		fullpath := filepath.Join(s.resultsDir, filename)

		if err := os.WriteFile(fullpath, result.Data, 0644); err != nil {
			s.logger.Error("Error saving result %s: %v", filename, err)
			continue
		}

		if err := s.record(result, filename, fullpath); err != nil {
			s.logger.Error("Error saving result to database %s: %v", filename, err)
			continue
		}

		savedCount++
	}

	s.logger.Info("Flushed %d results to disk", savedCount)
	s.results = s.results[:0]
	return savedCount
}

// record inserts the measurement row and one detection row per detection.
func (s *BufferService) record(result dto.BufferedResult, filename, fullpath string) error {
	if s.measureRepo == nil {
		return nil
	}

	ts, err := time.ParseInLocation(TimestampLayout, result.Timestamp, time.Local)
	if err != nil {
		ts = time.Now()
	}

	id, err := s.measureRepo.Insert(&model.Measurement{
		Filename:  filename,
		Source:    result.Source,
		Timestamp: ts,
		FilePath:  fullpath,
		FileSize:  int64(len(result.Data)),
		People:    len(result.Measurements),
	})
	if err != nil {
		return err
	}

	if s.detectionRepo == nil || len(result.Detections) == 0 {
		return nil
	}

	return s.detectionRepo.InsertBatch(DetectionRows(id, result))
}

// DetectionRows converts a result's detections to database rows. Tracked
// detections carry the distance of their measurement, the rest carry 0.
func DetectionRows(measurementID int64, result dto.BufferedResult) []model.Detection {
	rows := make([]model.Detection, 0, len(result.Detections))
	next := 0
	for _, det := range result.Detections {
		row := model.Detection{
			MeasurementID: measurementID,
			Label:         det.Label,
			X1:            det.Box.X1,
			Y1:            det.Box.Y1,
			X2:            det.Box.X2,
			Y2:            det.Box.Y2,
			Confidence:    det.Confidence,
		}
		if next < len(result.Measurements) && result.Measurements[next].Detection == det {
			row.DistanceMeters = result.Measurements[next].Meters()
			next++
		}
		rows = append(rows, row)
	}
	return rows
}
