package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"distancemeter/internal/config"
	"distancemeter/internal/dto"
	"distancemeter/internal/logger"
	"distancemeter/internal/measure"
	"distancemeter/internal/model"
	"distancemeter/internal/repository"
	"distancemeter/internal/service"
)

// GetHistoryHandler returns a filtered, paginated list of stored measurements.
func GetHistoryHandler(cfg *config.Config, logger *logger.Logger,
	measureRepo repository.MeasurementRepository, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &dto.HistoryFilter{
			Source:      q.Get("source"),
			DateAfter:   parseDate(q.Get("dateAfter")),
			DateBefore:  parseDate(q.Get("dateBefore")),
			MinDistance: parseDistance(q.Get("minDistance")),
			MaxDistance: parseDistance(q.Get("maxDistance")),
			Limit:       limit,
			Offset:      (page - 1) * limit,
		}

		measurements, err := measureRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying measurements from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalSize, err := measureRepo.GetTotalSize()
		if err != nil {
			logger.Error("Error getting result directory size: %v", err)
			totalSize = 0
		}

		totalCount, err := measureRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting measurements: %v", err)
			totalCount = len(measurements)
		}

		infos := make([]dto.MeasurementInfo, 0, len(measurements))
		for _, m := range measurements {
			distances := []string{}
			if detectionRepo != nil {
				meters, err := detectionRepo.GetDistancesByMeasurementID(m.ID)
				if err != nil {
					logger.Error("Error getting distances for measurement %d: %v", m.ID, err)
				}
				for _, d := range meters {
					distances = append(distances, measure.FormatMeters(d*100))
				}
			}

			infos = append(infos, dto.MeasurementInfo{
				Name:      m.Filename,
				Date:      m.Timestamp,
				TimeOfDay: m.Timestamp,
				Source:    m.Source,
				People:    m.People,
				Distances: distances,
			})
		}

		writeJSON(w, logger, http.StatusOK, dto.HistoryPage{
			Measurements: infos,
			ResultsDir:   cfg.ResultDirectory,
			Size:         totalSize,
			Length:       totalCount,
			TotalPages:   (totalCount + limit - 1) / limit,
			CurrentPage:  page,
			Limit:        limit,
		})
	}
}

// GetHistoryStatsHandler returns aggregate statistics over the stored measurements.
func GetHistoryStatsHandler(logger *logger.Logger, measureRepo repository.MeasurementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := measureRepo.GetStats()
		if err != nil {
			logger.Error("Error computing history stats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		sources, err := measureRepo.GetSources()
		if err != nil {
			logger.Error("Error listing sources: %v", err)
		}

		writeJSON(w, logger, http.StatusOK, map[string]interface{}{
			"stats":   stats,
			"sources": sources,
		})
	}
}

// GetDetectionsHandler returns a stored result together with every detection recorded for it.
func GetDetectionsHandler(logger *logger.Logger, measureRepo repository.MeasurementRepository, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := r.URL.Query().Get("filename")
		if filename == "" {
			http.Error(w, "Filename required", http.StatusBadRequest)
			return
		}

		m, err := measureRepo.GetByFilename(filename)
		if err != nil {
			logger.Error("Error getting measurement %s: %v", filename, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if m == nil {
			http.NotFound(w, r)
			return
		}

		detections := []model.Detection{}
		if detectionRepo != nil {
			stored, err := detectionRepo.GetByMeasurementID(m.ID)
			if err != nil {
				logger.Error("Error getting detections for measurement %d: %v", m.ID, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			detections = append(detections, stored...)
		}

		writeJSON(w, logger, http.StatusOK, map[string]interface{}{
			"measurement": m,
			"detections":  detections,
		})
	}
}

// DeleteResultHandler removes a stored result from disk and database.
func DeleteResultHandler(cfg *config.Config, logger *logger.Logger, measureRepo repository.MeasurementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := r.URL.Query().Get("filename")
		if filename == "" {
			http.Error(w, "Filename required", http.StatusBadRequest)
			return
		}
		if filename != filepath.Base(filename) {
			http.Error(w, "Invalid filename", http.StatusBadRequest)
			return
		}

		filePath := filepath.Join(cfg.ResultDirectory, filename)
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to delete file %s: %v", filePath, err)
		}

		if measureRepo != nil {
			if err := measureRepo.DeleteByFilename(filename); err != nil {
				logger.Error("Failed to delete from database: %v", err)
			}
		}

		logger.Info("Deleted result: %s", filename)
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "deleted", "filename": filename})
	}
}

// ClearHistoryHandler deletes all result images and clears the database.
func ClearHistoryHandler(cfg *config.Config, logger *logger.Logger, measureRepo repository.MeasurementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := os.ReadDir(cfg.ResultDirectory)
		if err != nil && !os.IsNotExist(err) {
			logger.Error("Error reading results directory: %v", err)
			http.Error(w, "Unable to read results directory", http.StatusInternalServerError)
			return
		}

		for _, file := range files {
			if file.IsDir() || !service.IsImageFile(file.Name()) {
				continue
			}
			if err := os.Remove(filepath.Join(cfg.ResultDirectory, file.Name())); err != nil {
				logger.Error("Error deleting file %s: %v", file.Name(), err)
			}
		}

		if measureRepo != nil {
			if err := measureRepo.DeleteAll(); err != nil {
				logger.Error("Error clearing database: %v", err)
			}
		}

		logger.Info("All results cleared from directory: %s", cfg.ResultDirectory)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ViewResultHandler serves a single stored result specified via the "image" query parameter.
func ViewResultHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image := r.URL.Query().Get("image")
		if image == "" {
			http.Error(w, "Image parameter is required", http.StatusBadRequest)
			return
		}

		path, err := service.ResolveImage(cfg.ResultDirectory, image)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseDistance parses a distance bound in meters; invalid or negative values mean no bound.
func parseDistance(v string) float64 {
	d, err := strconv.ParseFloat(v, 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
