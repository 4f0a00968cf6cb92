// Package service runs the measurement pipeline: decode, detect, estimate, annotate, encode.
package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"distancemeter/internal/config"
	"distancemeter/internal/dto"
	"distancemeter/internal/logger"
	"distancemeter/internal/measure"
	"distancemeter/internal/service/ai"
	"distancemeter/internal/service/annotate"
	"distancemeter/internal/service/storage"
	"distancemeter/internal/service/websocket"

	"gocv.io/x/gocv"
)

// Sources tag where a measurement came from.
const (
	SourceUpload = "upload"
	SourceScan   = "scan"
	SourceSelect = "select"
	SourceCLI    = "cli"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

type Manager struct {
	detector  ai.Detector
	detectMu  sync.Mutex
	annotator *annotate.Annotator

	bufferService    *storage.BufferService
	websocketService *websocket.HubService

	jpegQuality int
	logger      *logger.Logger
}

// NewManager wires the pipeline. bufferService and websocketService may be nil
// when results are neither stored nor streamed (CLI use).
func NewManager(detector ai.Detector, bufferService *storage.BufferService, websocketService *websocket.HubService, config *config.Config, logger *logger.Logger) *Manager {
	return &Manager{
		detector:         detector,
		annotator:        annotate.New(config.Calibration()),
		bufferService:    bufferService,
		websocketService: websocketService,
		jpegQuality:      config.JPEGQuality,
		logger:           logger,
	}
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

// Measure decodes data, measures every tracked object and returns the annotated JPEG.
// name identifies the input in errors; source tags the result.
func (m *Manager) Measure(data []byte, name, source string) (*dto.MeasurementResult, error) {
	if len(data) == 0 {
		return nil, &measure.ImageDecodeError{Source: name}
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, &measure.ImageDecodeError{Source: name, Err: err}
	}
	defer img.Close()

	if img.Empty() {
		return nil, &measure.ImageDecodeError{Source: name}
	}

	return m.MeasureMat(&img, name, source)
}

// MeasureFile reads and measures the image at path.
func (m *Manager) MeasureFile(path, source string) (*dto.MeasurementResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &measure.FileNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return m.Measure(data, filepath.Base(path), source)
}

// MeasureMat runs detection on img, annotates it in place and encodes it as JPEG.
func (m *Manager) MeasureMat(img *gocv.Mat, name, source string) (*dto.MeasurementResult, error) {
	detections, err := m.detect(*img)
	if err != nil {
		return nil, err
	}

	measurements, err := m.annotator.AnnotateMeasurements(img, detections)
	if err != nil {
		return nil, fmt.Errorf("failed to annotate %s: %w", name, err)
	}

	encoded, err := m.encode(*img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", name, err)
	}

	distances := measure.FormatAll(measurements)
	result := &dto.MeasurementResult{
		Source:       source,
		People:       len(measurements),
		Distances:    distances,
		Summary:      dto.Summary(distances),
		Detections:   detections,
		Measurements: measurements,
		Image:        encoded,
		ImageBase64:  base64.StdEncoding.EncodeToString(encoded),
	}

	m.logger.Info("📏 %s (%s): %s", name, source, result.Summary)
	m.publish(result)
	return result, nil
}

// detect serializes access to the detector, which is not safe for concurrent use.
func (m *Manager) detect(img gocv.Mat) ([]measure.Detection, error) {
	m.detectMu.Lock()
	defer m.detectMu.Unlock()

	detections, err := m.detector.Detect(img)
	if err != nil {
		var decodeErr *measure.ImageDecodeError
		var inferenceErr *measure.InferenceError
		if errors.As(err, &decodeErr) || errors.As(err, &inferenceErr) {
			return nil, err
		}
		return nil, &measure.InferenceError{Err: err}
	}
	return detections, nil
}

func (m *Manager) encode(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, m.jpegQuality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// publish hands the result to the history buffer and the live viewers.
// Directory scans are only streamed: the scanned files are already on disk
// and every scan page view would store them again.
func (m *Manager) publish(result *dto.MeasurementResult) {
	if m.bufferService != nil && result.Source != SourceScan {
		m.bufferService.Add(dto.BufferedResult{
			Source:       result.Source,
			Detections:   result.Detections,
			Measurements: result.Measurements,
			Data:         result.Image,
		})
	}

	if m.websocketService != nil {
		err := m.websocketService.BroadcastJSON(dto.LiveMessage{
			Source:    result.Source,
			Summary:   result.Summary,
			Distances: result.Distances,
			Image:     result.ImageBase64,
		})
		if err != nil {
			m.logger.Error("Failed to broadcast result: %v", err)
		}
	}
}

// ScanItem is one successfully measured file of a directory scan.
type ScanItem struct {
	Name   string
	Result *dto.MeasurementResult
}

// ScanSkip is a file the scan could not measure.
type ScanSkip struct {
	Name   string
	Reason string
}

// ScanReport collects the outcome of ScanDirectory.
type ScanReport struct {
	Results []ScanItem
	Skipped []ScanSkip
}

// ScanDirectory measures every image in dir in name order. Files that cannot be
// decoded or read are skipped with a warning; inference failures abort the scan.
// progress, if not nil, is called after each file.
func (m *Manager) ScanDirectory(dir, source string, progress func(name string)) (*ScanReport, error) {
	names, err := ListImages(dir)
	if err != nil {
		return nil, err
	}

	report := &ScanReport{}
	for _, name := range names {
		result, err := m.MeasureFile(filepath.Join(dir, name), source)
		if progress != nil {
			progress(name)
		}

		var decodeErr *measure.ImageDecodeError
		var notFoundErr *measure.FileNotFoundError
		switch {
		case err == nil:
			report.Results = append(report.Results, ScanItem{Name: name, Result: result})
		case errors.As(err, &decodeErr), errors.As(err, &notFoundErr):
			m.logger.Warning("Skipping %s: %v", name, err)
			report.Skipped = append(report.Skipped, ScanSkip{Name: name, Reason: err.Error()})
		default:
			return report, err
		}
	}

	m.logger.Info("Scanned %s: %d measured, %d skipped", dir, len(report.Results), len(report.Skipped))
	return report, nil
}

// Close releases the detector.
func (m *Manager) Close() error {
	m.detectMu.Lock()
	defer m.detectMu.Unlock()
	return m.detector.Close()
}

// ListImages returns the names of the image files directly inside dir, sorted.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &measure.FileNotFoundError{Path: dir}
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ResolveImage returns the path of the image called name inside dir. Names that
// are not plain file names, or that do not exist, yield a FileNotFoundError.
func ResolveImage(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "", &measure.FileNotFoundError{Path: name}
	}

	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", &measure.FileNotFoundError{Path: name}
	}
	return path, nil
}
