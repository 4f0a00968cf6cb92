package annotate

import (
	"image"
	"reflect"
	"testing"

	"distancemeter/internal/measure"

	"gocv.io/x/gocv"
)

func newCanvas(t *testing.T, width, height int) gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })
	return mat
}

func mustDetection(t *testing.T, label string, x1, y1, x2, y2 int) measure.Detection {
	t.Helper()
	det, err := measure.NewDetection(label, 0.9, x1, y1, x2, y2)
	if err != nil {
		t.Fatalf("NewDetection failed: %v", err)
	}
	return det
}

func isGreen(v gocv.Vecb) bool {
	return v[0] == 0 && v[1] == 255 && v[2] == 0
}

func isBlack(v gocv.Vecb) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

func TestAnnotate_OnlyTrackedClass(t *testing.T) {
	img := newCanvas(t, 320, 240)
	a := New(measure.Calibration{FocalLength: 600, KnownWidth: 50, TrackedClass: "person"})

	car := mustDetection(t, "car", 150, 100, 250, 200)
	person := mustDetection(t, "person", 10, 10, 60, 110)

	got, err := a.Annotate(&img, []measure.Detection{car, person})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"6.00m"}) {
		t.Errorf("Expected [6.00m], got %v", got)
	}

	// left edge of the person box is drawn
	if v := img.GetVecbAt(60, 10); !isGreen(v) {
		t.Errorf("Expected green box edge at (10,60), got %v", v)
	}
	// the car box is never drawn
	if v := img.GetVecbAt(150, 150); !isBlack(v) {
		t.Errorf("Expected untouched pixel on car box edge, got %v", v)
	}
}

func TestAnnotate_LabelAboveBox(t *testing.T) {
	img := newCanvas(t, 320, 240)
	a := New(measure.DefaultCalibration())

	person := mustDetection(t, "person", 10, 50, 110, 200)
	if _, err := a.Annotate(&img, []measure.Detection{person}); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	// label strip occupies rows 30..50 above the box
	if v := img.GetVecbAt(31, 11); !isGreen(v) {
		t.Errorf("Expected label background at (11,31), got %v", v)
	}
}

func TestAnnotate_Deterministic(t *testing.T) {
	base := newCanvas(t, 320, 240)
	a := New(measure.DefaultCalibration())
	dets := []measure.Detection{
		mustDetection(t, "person", 10, 30, 60, 130),
		mustDetection(t, "dog", 100, 100, 140, 140),
		mustDetection(t, "person", 200, 40, 300, 230),
	}

	first := base.Clone()
	defer first.Close()
	second := base.Clone()
	defer second.Close()

	a1, err := a.Annotate(&first, dets)
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	a2, err := a.Annotate(&second, dets)
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	if !reflect.DeepEqual(a1, a2) {
		t.Errorf("Expected identical results, got %v and %v", a1, a2)
	}
	if !reflect.DeepEqual(a1, []string{"6.00m", "3.00m"}) {
		t.Errorf("Unexpected distances %v", a1)
	}
}

func TestAnnotate_NoDetections(t *testing.T) {
	img := newCanvas(t, 64, 64)
	got, err := New(measure.DefaultCalibration()).Annotate(&img, nil)
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no distances, got %v", got)
	}
}

func TestLabelPlacement(t *testing.T) {
	tests := []struct {
		name       string
		box        measure.BoundingBox
		textWidth  int
		imgWidth   int
		wantRect   image.Rectangle
		wantOrigin image.Point
	}{
		{
			name:       "above box",
			box:        measure.BoundingBox{X1: 10, Y1: 50, X2: 60, Y2: 150},
			textWidth:  100,
			imgWidth:   640,
			wantRect:   image.Rect(10, 30, 110, 50),
			wantOrigin: image.Pt(10, 45),
		},
		{
			name:       "near top edge moves inside",
			box:        measure.BoundingBox{X1: 10, Y1: 5, X2: 60, Y2: 150},
			textWidth:  100,
			imgWidth:   640,
			wantRect:   image.Rect(10, 5, 110, 25),
			wantOrigin: image.Pt(10, 20),
		},
		{
			name:       "near right edge shifts left",
			box:        measure.BoundingBox{X1: 600, Y1: 50, X2: 630, Y2: 150},
			textWidth:  100,
			imgWidth:   640,
			wantRect:   image.Rect(540, 30, 640, 50),
			wantOrigin: image.Pt(540, 45),
		},
		{
			name:       "label wider than image",
			box:        measure.BoundingBox{X1: 5, Y1: 50, X2: 30, Y2: 80},
			textWidth:  100,
			imgWidth:   60,
			wantRect:   image.Rect(0, 30, 100, 50),
			wantOrigin: image.Pt(0, 45),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rect, origin := labelPlacement(tt.box, tt.textWidth, tt.imgWidth)
			if rect != tt.wantRect {
				t.Errorf("rect = %v, expected %v", rect, tt.wantRect)
			}
			if origin != tt.wantOrigin {
				t.Errorf("origin = %v, expected %v", origin, tt.wantOrigin)
			}
		})
	}
}
