package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"distancemeter/internal/measure"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	Password string

	ModelPath           string
	DetectorBackend     string  // "opencv" or "onnx"
	OnnxRuntimeLib      string  // shared library path for the onnx backend
	InputSize           int     // square network input, 640 for yolov8
	ConfidenceThreshold float64 // minimum class score
	NMSThreshold        float64 // IoU above which overlapping boxes are suppressed

	FocalLength  float64 // pixels
	KnownWidth   float64 // centimetres
	TrackedClass string

	ImageDirectory  string // source images for the scan and select pages
	ResultDirectory string // annotated results
	DatabasePath    string
	LogDirectory    string

	MaxUploadSizeMB     int
	JPEGQuality         int
	ThumbnailSize       int
	ResultBufferLimit   int
	ResultFlushInterval int // seconds
}

const (
	BackendOpenCV = "opencv"
	BackendONNX   = "onnx"
)

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// Missing .env is fine, the environment still applies.
	_ = godotenv.Load()

	return &Config{
		Port:     getEnvAsInt("PORT", 8080),
		Password: getEnv("PASSWORD", ""),

		ModelPath:           getEnv("MODEL_PATH", filepath.Join(".", "models", "yolov8n.onnx")),
		DetectorBackend:     getEnv("DETECTOR_BACKEND", BackendOpenCV),
		OnnxRuntimeLib:      getEnv("ONNXRUNTIME_LIB", ""),
		InputSize:           getEnvAsInt("INPUT_SIZE", 640),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.25),
		NMSThreshold:        getEnvAsFloat("NMS_THRESHOLD", 0.45),

		FocalLength:  getEnvAsFloat("FOCAL_LENGTH", measure.DefaultFocalLength),
		KnownWidth:   getEnvAsFloat("KNOWN_WIDTH", measure.DefaultKnownWidth),
		TrackedClass: getEnv("TRACKED_CLASS", measure.DefaultTrackedClass),

		ImageDirectory:  getEnv("IMAGE_DIR", filepath.Join(".", "images")),
		ResultDirectory: getEnv("RESULT_DIR", filepath.Join(".", "results")),
		DatabasePath:    getEnv("DB_PATH", filepath.Join(".", "data", "measurements.db")),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),

		MaxUploadSizeMB:     getEnvAsInt("MAX_UPLOAD_MB", 16),
		JPEGQuality:         getEnvAsInt("JPEG_QUALITY", 90),
		ThumbnailSize:       getEnvAsInt("THUMBNAIL_SIZE", 160),
		ResultBufferLimit:   getEnvAsInt("BUFFER_LIMIT", 20),
		ResultFlushInterval: getEnvAsInt("FLUSH_INTERVAL", 30),
	}
}

// Calibration returns the distance-estimation constants.
func (c *Config) Calibration() measure.Calibration {
	return measure.Calibration{
		FocalLength:  c.FocalLength,
		KnownWidth:   c.KnownWidth,
		TrackedClass: c.TrackedClass,
	}
}

// FlushInterval returns ResultFlushInterval as a duration.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.ResultFlushInterval) * time.Second
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) << 20
}

// Validate checks values that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	if err := c.Calibration().Validate(); err != nil {
		return fmt.Errorf("calibration: %w", err)
	}
	if c.DetectorBackend != BackendOpenCV && c.DetectorBackend != BackendONNX {
		return fmt.Errorf("unknown detector backend %q", c.DetectorBackend)
	}
	if c.InputSize <= 0 || c.InputSize%32 != 0 {
		return fmt.Errorf("input size must be a positive multiple of 32, got %d", c.InputSize)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold out of range: %v", c.ConfidenceThreshold)
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		return fmt.Errorf("nms threshold out of range: %v", c.NMSThreshold)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality out of range: %d", c.JPEGQuality)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
