package handler

import (
	"net/http"

	"distancemeter/internal/config"
	"distancemeter/internal/dto"
	"distancemeter/internal/logger"
	"distancemeter/internal/service"

	"github.com/disintegration/imaging"
)

// SelectListHandler lists the images in the configured image directory.
func SelectListHandler(cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := selectPage{Dir: cfg.ImageDirectory}
		status := http.StatusOK

		images, err := service.ListImages(cfg.ImageDirectory)
		if err != nil {
			status, page.Warning = measureStatus(err, http.StatusUnprocessableEntity)
			logger.Warning("Listing %s failed: %v", cfg.ImageDirectory, err)
		}
		page.Images = images

		renderPage(w, logger, status, "select", page)
	}
}

// SelectMeasureHandler measures the image named by the "name" query parameter.
// Problems are shown as a warning on the selection page.
func SelectMeasureHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")

		result, err := measureSelected(manager, cfg.ImageDirectory, name)
		if err != nil {
			status, message := measureStatus(err, http.StatusUnprocessableEntity)
			if status >= http.StatusInternalServerError {
				logger.Error("Measuring %q failed: %v", name, err)
			} else {
				logger.Warning("Measuring %q failed: %v", name, err)
			}

			images, _ := service.ListImages(cfg.ImageDirectory)
			renderPage(w, logger, status, "select", selectPage{
				Dir:     cfg.ImageDirectory,
				Warning: message,
				Images:  images,
			})
			return
		}

		renderPage(w, logger, http.StatusOK, "result", resultPage{
			Name:    name,
			Summary: result.Summary,
			Image:   dataURL(result),
			Back:    "/select",
		})
	}
}

func measureSelected(manager *service.Manager, dir, name string) (*dto.MeasurementResult, error) {
	path, err := service.ResolveImage(dir, name)
	if err != nil {
		return nil, err
	}
	return manager.MeasureFile(path, service.SourceSelect)
}

// ThumbnailHandler serves a small JPEG preview of an image in the image directory.
func ThumbnailHandler(cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := service.ResolveImage(cfg.ImageDirectory, r.URL.Query().Get("name"))
		if err != nil {
			http.NotFound(w, r)
			return
		}

		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			logger.Warning("Thumbnail of %s failed: %v", path, err)
			http.Error(w, "Unsupported image", http.StatusUnprocessableEntity)
			return
		}

		size := cfg.ThumbnailSize
		if size <= 0 {
			size = 160
		}
		thumb := imaging.Fit(img, size, size, imaging.Lanczos)

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "max-age=300")
		if err := imaging.Encode(w, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
			logger.Error("Encoding thumbnail of %s failed: %v", path, err)
		}
	}
}
