package handler

import (
	"errors"
	"io"
	"net/http"

	"distancemeter/internal/config"
	"distancemeter/internal/logger"
	"distancemeter/internal/measure"
	"distancemeter/internal/service"
)

const (
	errNoFileUploaded = "No file uploaded"
	errNoFileSelected = "No file selected"
)

// uploadError is a client mistake in a multipart upload.
type uploadError struct {
	status  int
	message string
}

func (e *uploadError) Error() string { return e.message }

// readUpload extracts the bytes and name of the "file" form field.
func readUpload(w http.ResponseWriter, r *http.Request, cfg *config.Config) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes())

	if err := r.ParseMultipartForm(cfg.MaxUploadBytes()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", &uploadError{http.StatusRequestEntityTooLarge, "File too large"}
		}
		return nil, "", &uploadError{http.StatusBadRequest, errNoFileUploaded}
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		// An empty file input is submitted as a plain form value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			return nil, "", &uploadError{http.StatusBadRequest, errNoFileSelected}
		}
		return nil, "", &uploadError{http.StatusBadRequest, errNoFileUploaded}
	}
	if err != nil {
		return nil, "", &uploadError{http.StatusBadRequest, errNoFileUploaded}
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, "", &uploadError{http.StatusBadRequest, errNoFileSelected}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", &uploadError{http.StatusBadRequest, "Unable to read uploaded file"}
	}
	return data, header.Filename, nil
}

// measureStatus maps a pipeline error to an HTTP status and user message.
func measureStatus(err error, decodeStatus int) (int, string) {
	var upErr *uploadError
	var decodeErr *measure.ImageDecodeError
	var notFoundErr *measure.FileNotFoundError
	switch {
	case errors.As(err, &upErr):
		return upErr.status, upErr.message
	case errors.As(err, &decodeErr):
		return decodeStatus, "Could not read the image: " + decodeErr.Source
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, "Image not found: " + notFoundErr.Path
	default:
		return http.StatusInternalServerError, "Measurement failed"
	}
}

// UploadHandler serves the upload form on GET and measures the uploaded image on POST.
func UploadHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := uploadPage{TrackedClass: cfg.TrackedClass}

		switch r.Method {
		case http.MethodGet:
			renderPage(w, logger, http.StatusOK, "upload", page)
			return
		case http.MethodPost:
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		data, name, err := readUpload(w, r, cfg)
		if err != nil {
			renderUploadError(w, logger, page, err)
			return
		}

		result, err := manager.Measure(data, name, service.SourceUpload)
		if err != nil {
			renderUploadError(w, logger, page, err)
			return
		}

		renderPage(w, logger, http.StatusOK, "result", resultPage{
			Name:    name,
			Summary: result.Summary,
			Image:   dataURL(result),
			Back:    "/",
		})
	}
}

// renderUploadError shows the upload form again with the failure message.
func renderUploadError(w http.ResponseWriter, logger *logger.Logger, page uploadPage, err error) {
	status, message := measureStatus(err, http.StatusBadRequest)
	if status >= http.StatusInternalServerError {
		logger.Error("Upload measurement failed: %v", err)
	} else {
		logger.Warning("Upload rejected: %v", err)
	}
	page.Error = message
	renderPage(w, logger, status, "upload", page)
}

// MeasureAPIHandler is the JSON variant of the upload: POST /api/measure.
func MeasureAPIHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, name, err := readUpload(w, r, cfg)
		if err != nil {
			status, message := measureStatus(err, http.StatusBadRequest)
			writeJSONError(w, logger, status, message)
			return
		}

		result, err := manager.Measure(data, name, service.SourceUpload)
		if err != nil {
			status, message := measureStatus(err, http.StatusBadRequest)
			if status >= http.StatusInternalServerError {
				logger.Error("API measurement failed: %v", err)
			}
			writeJSONError(w, logger, status, message)
			return
		}

		writeJSON(w, logger, http.StatusOK, result)
	}
}
