package ai

import (
	"errors"
	"fmt"
	"image"
	"os"

	"distancemeter/internal/config"
	"distancemeter/internal/logger"
	"distancemeter/internal/measure"

	"gocv.io/x/gocv"
)

// OpenCVDetector runs the ONNX model through the OpenCV DNN module.
type OpenCVDetector struct {
	net       gocv.Net
	modelPath string
	cfg       *config.Config
	logger    *logger.Logger
}

// NewOpenCVDetector loads the network once; the returned detector is reused for every request.
func NewOpenCVDetector(cfg *config.Config, logger *logger.Logger) (*OpenCVDetector, error) {
	d := &OpenCVDetector{
		modelPath: cfg.ModelPath,
		cfg:       cfg,
		logger:    logger,
	}

	if err := d.initializeNet(); err != nil {
		return nil, err
	}
	return d, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (d *OpenCVDetector) initializeNet() error {
	if _, err := os.Stat(d.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", d.modelPath)
	}

	net := gocv.ReadNet(d.modelPath, "")
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", d.modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	d.net = net
	d.logger.Info("Detection network initialized from %s (opencv)", d.modelPath)
	return nil
}

// Detect runs a single forward pass over img.
func (d *OpenCVDetector) Detect(img gocv.Mat) ([]measure.Detection, error) {
	if img.Empty() {
		return nil, &measure.ImageDecodeError{Source: "mat"}
	}

	size := d.cfg.InputSize
	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return nil, &measure.InferenceError{Err: errors.New("empty network output")}
	}

	dims := output.Size()
	if len(dims) != 3 {
		return nil, &measure.InferenceError{Err: fmt.Errorf("unexpected output dims %v", dims)}
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, &measure.InferenceError{Err: err}
	}

	detections, err := DecodeYOLOv8(data, dims[1], dims[2], decodeOptions(d.cfg, img.Cols(), img.Rows()))
	if err != nil {
		return nil, &measure.InferenceError{Err: err}
	}

	d.logger.Info("Detected %d objects", len(detections))
	return detections, nil
}

// Close releases the network.
func (d *OpenCVDetector) Close() error {
	return d.net.Close()
}
