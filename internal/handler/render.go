package handler

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"distancemeter/internal/dto"
	"distancemeter/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type uploadPage struct {
	TrackedClass string
	Error        string
}

type resultPage struct {
	Name    string
	Summary string
	Image   template.URL
	Back    string
}

type scanEntry struct {
	Name    string
	Summary string
	Image   template.URL
}

type scanPage struct {
	Dir     string
	Warning string
	Items   []scanEntry
	Skipped []skippedEntry
}

type skippedEntry struct {
	Name   string
	Reason string
}

type selectPage struct {
	Dir     string
	Warning string
	Images  []string
}

type loginPage struct {
	Error string
}

// dataURL embeds an encoded JPEG into an img src.
func dataURL(result *dto.MeasurementResult) template.URL {
	return template.URL("data:image/jpeg;base64," + result.ImageBase64)
}

// renderPage executes a page template into a buffer so a template failure
// still yields a clean 500.
func renderPage(w http.ResponseWriter, logger *logger.Logger, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("Error rendering %s page: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, logger *logger.Logger, status int, message string) {
	writeJSON(w, logger, status, map[string]string{"error": message})
}
