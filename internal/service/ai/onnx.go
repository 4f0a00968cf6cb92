package ai

import (
	"fmt"
	"image"
	"os"
	"runtime"

	"distancemeter/internal/config"
	"distancemeter/internal/logger"
	"distancemeter/internal/measure"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

// ONNXDetector runs the model with onnxruntime. Input and output tensors are
// bound to the session once and overwritten on every call.
type ONNXDetector struct {
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
	channels int
	anchors  int
	cfg      *config.Config
	logger   *logger.Logger
}

// NewONNXDetector initializes the onnxruntime environment and creates the session.
func NewONNXDetector(cfg *config.Config, logger *logger.Logger) (*ONNXDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	if cfg.OnnxRuntimeLib != "" {
		ort.SetSharedLibraryPath(cfg.OnnxRuntimeLib)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("error initializing onnxruntime: %w", err)
		}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	options.SetIntraOpNumThreads(runtime.NumCPU())
	options.SetInterOpNumThreads(1)

	d := &ONNXDetector{
		channels: 4 + len(COCOLabels),
		anchors:  anchorCount(cfg.InputSize),
		cfg:      cfg,
		logger:   logger,
	}

	inputShape := ort.NewShape(1, 3, int64(cfg.InputSize), int64(cfg.InputSize))
	outputShape := ort.NewShape(1, int64(d.channels), int64(d.anchors))

	d.input, err = ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	d.output, err = ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		d.input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	d.session, err = ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.ArbitraryTensor{d.input},
		[]ort.ArbitraryTensor{d.output},
		options,
	)
	if err != nil {
		d.input.Destroy()
		d.output.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	logger.Info("Detection network initialized from %s (onnxruntime)", cfg.ModelPath)
	return d, nil
}

// Detect converts img to RGB, resizes it to the network input and runs the session.
func (d *ONNXDetector) Detect(img gocv.Mat) ([]measure.Detection, error) {
	if img.Empty() {
		return nil, &measure.ImageDecodeError{Source: "mat"}
	}

	pic, err := img.ToImage()
	if err != nil {
		return nil, &measure.ImageDecodeError{Source: "mat", Err: err}
	}

	fillInputTensor(pic, d.input.GetData(), d.cfg.InputSize)

	if err := d.session.Run(); err != nil {
		return nil, &measure.InferenceError{Err: err}
	}

	detections, err := DecodeYOLOv8(d.output.GetData(), d.channels, d.anchors, decodeOptions(d.cfg, img.Cols(), img.Rows()))
	if err != nil {
		return nil, &measure.InferenceError{Err: err}
	}

	d.logger.Info("Detected %d objects", len(detections))
	return detections, nil
}

// Close destroys the session and its tensors.
func (d *ONNXDetector) Close() error {
	if d.session != nil {
		d.session.Destroy()
	}
	if d.input != nil {
		d.input.Destroy()
	}
	if d.output != nil {
		d.output.Destroy()
	}
	return nil
}

// fillInputTensor writes pic, stretched to size x size, into dst as planar RGB scaled to [0,1].
func fillInputTensor(pic image.Image, dst []float32, size int) {
	resized := imaging.Resize(pic, size, size, imaging.Linear)
	channelSize := size * size
	for y := 0; y < size; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < size; x++ {
			i := y*size + x
			p := row[x*4:]
			dst[i] = float32(p[0]) / 255.0
			dst[channelSize+i] = float32(p[1]) / 255.0
			dst[channelSize*2+i] = float32(p[2]) / 255.0
		}
	}
}
