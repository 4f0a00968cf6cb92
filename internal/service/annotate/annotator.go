// Package annotate draws distance labels for tracked detections onto an image.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"distancemeter/internal/measure"

	"gocv.io/x/gocv"
)

const (
	boxThickness  = 2
	fontScale     = 0.6
	fontThickness = 2
	labelHeight   = 20
	labelBaseline = 5
	labelFontFace = gocv.FontHersheySimplex
)

var (
	boxColor  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	textColor = color.RGBA{R: 0, G: 0, B: 0, A: 0}
)

// Annotator draws boxes and distance labels for the calibration's tracked class.
type Annotator struct {
	calibration measure.Calibration
}

// New returns an Annotator for c.
func New(c measure.Calibration) *Annotator {
	return &Annotator{calibration: c}
}

// Annotate mutates img in place and returns the formatted distance of every
// tracked detection, in detection order.
func (a *Annotator) Annotate(img *gocv.Mat, dets []measure.Detection) ([]string, error) {
	ms, err := a.AnnotateMeasurements(img, dets)
	if err != nil {
		return nil, err
	}
	return measure.FormatAll(ms), nil
}

// AnnotateMeasurements is Annotate returning the full measurements.
func (a *Annotator) AnnotateMeasurements(img *gocv.Mat, dets []measure.Detection) ([]measure.Measurement, error) {
	ms := measure.Measure(dets, a.calibration)
	for _, m := range ms {
		if err := a.draw(img, m); err != nil {
			return nil, err
		}
	}
	return ms, nil
}

func (a *Annotator) draw(img *gocv.Mat, m measure.Measurement) error {
	box := m.Detection.Box
	if err := gocv.Rectangle(img, box.Rect(), boxColor, boxThickness); err != nil {
		return fmt.Errorf("failed to draw rectangle: %w", err)
	}

	label := fmt.Sprintf("%s: %s", m.Detection.Label, m.Formatted())
	textSize := gocv.GetTextSize(label, labelFontFace, fontScale, fontThickness)

	background, origin := labelPlacement(box, textSize.X, img.Cols())
	if err := gocv.Rectangle(img, background, boxColor, -1); err != nil {
		return fmt.Errorf("failed to draw label background: %w", err)
	}
	if err := gocv.PutText(img, label, origin, labelFontFace, fontScale, textColor, fontThickness); err != nil {
		return fmt.Errorf("failed to draw text: %w", err)
	}
	return nil
}

// labelPlacement puts the label strip on top of the box. When that strip
// would leave the canvas it is moved inside the box top, and it is shifted
// left when it would run past the right edge.
func labelPlacement(box measure.BoundingBox, textWidth, imgWidth int) (image.Rectangle, image.Point) {
	x := box.X1
	if x+textWidth > imgWidth {
		x = max(0, imgWidth-textWidth)
	}

	top := box.Y1 - labelHeight
	if top < 0 {
		top = box.Y1
	}

	background := image.Rect(x, top, x+textWidth, top+labelHeight)
	origin := image.Pt(x, top+labelHeight-labelBaseline)
	return background, origin
}
