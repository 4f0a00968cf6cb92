package handler

import (
	"net/http"

	"distancemeter/internal/config"
	"distancemeter/internal/logger"
	"distancemeter/internal/service"
)

// ScanHandler measures every image in the configured image directory.
// Unreadable files are skipped and listed on the page.
func ScanHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := scanPage{Dir: cfg.ImageDirectory}

		report, err := manager.ScanDirectory(cfg.ImageDirectory, service.SourceScan, nil)
		if report != nil {
			for _, item := range report.Results {
				page.Items = append(page.Items, scanEntry{
					Name:    item.Name,
					Summary: item.Result.Summary,
					Image:   dataURL(item.Result),
				})
			}
			for _, skip := range report.Skipped {
				page.Skipped = append(page.Skipped, skippedEntry{Name: skip.Name, Reason: skip.Reason})
			}
		}

		status := http.StatusOK
		if err != nil {
			status, page.Warning = measureStatus(err, http.StatusUnprocessableEntity)
			if status >= http.StatusInternalServerError {
				logger.Error("Scan of %s failed: %v", cfg.ImageDirectory, err)
			} else {
				logger.Warning("Scan of %s failed: %v", cfg.ImageDirectory, err)
			}
		}

		renderPage(w, logger, status, "scan", page)
	}
}
