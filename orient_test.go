package aidetect

import (
	"image"
	"image/color"
	"testing"
)

// marker builds a w x h image whose top-left pixel is red and the rest black.
func marker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	return img
}

func TestApplyOrientation(t *testing.T) {
	t.Parallel()

	// For a 4x2 source with a marker at (0,0), where the marker lands and
	// the resulting dimensions.
	tests := []struct {
		orientation int
		wantW       int
		wantH       int
		wantX       int
		wantY       int
	}{
		{orientation: 1, wantW: 4, wantH: 2, wantX: 0, wantY: 0},
		{orientation: 2, wantW: 4, wantH: 2, wantX: 3, wantY: 0},
		{orientation: 3, wantW: 4, wantH: 2, wantX: 3, wantY: 1},
		{orientation: 4, wantW: 4, wantH: 2, wantX: 0, wantY: 1},
		{orientation: 5, wantW: 2, wantH: 4, wantX: 0, wantY: 0},
		{orientation: 6, wantW: 2, wantH: 4, wantX: 1, wantY: 0},
		{orientation: 7, wantW: 2, wantH: 4, wantX: 1, wantY: 3},
		{orientation: 8, wantW: 2, wantH: 4, wantX: 0, wantY: 3},
		{orientation: 0, wantW: 4, wantH: 2, wantX: 0, wantY: 0},
		{orientation: 42, wantW: 4, wantH: 2, wantX: 0, wantY: 0},
	}

	for _, tc := range tests {
		got := applyOrientation(marker(4, 2), tc.orientation)
		if got.Rect.Dx() != tc.wantW || got.Rect.Dy() != tc.wantH {
			t.Errorf("orientation %d: size %dx%d, want %dx%d",
				tc.orientation, got.Rect.Dx(), got.Rect.Dy(), tc.wantW, tc.wantH)
			continue
		}
		if c := got.NRGBAAt(tc.wantX, tc.wantY); c.R != 255 {
			t.Errorf("orientation %d: marker not at (%d,%d)", tc.orientation, tc.wantX, tc.wantY)
		}
	}
}

func TestToNRGBA_ShiftsOrigin(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	src.Set(10, 10, color.RGBA{G: 255, A: 255})

	got := toNRGBA(src)
	if got.Rect.Min != (image.Point{}) {
		t.Fatalf("origin = %v, want (0,0)", got.Rect.Min)
	}
	if got.Rect.Dx() != 4 || got.Rect.Dy() != 2 {
		t.Errorf("size = %dx%d, want 4x2", got.Rect.Dx(), got.Rect.Dy())
	}
	if c := got.NRGBAAt(0, 0); c.G != 255 {
		t.Errorf("pixel (0,0) = %v, want green", c)
	}
}

func TestApplyOrientation_InversePairsRestoreImage(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 5, 3))
	for y := range 3 {
		for x := range 5 {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 80), B: 7, A: 255})
		}
	}

	// Each pair undoes itself: 6 and 8 are opposite rotations, 2, 3, 4, 5
	// and 7 are involutions.
	pairs := [][2]int{{6, 8}, {8, 6}, {2, 2}, {3, 3}, {4, 4}, {5, 5}, {7, 7}}
	for _, p := range pairs {
		got := applyOrientation(applyOrientation(src, p[0]), p[1])
		if got.Rect != src.Rect {
			t.Errorf("orientations %v: bounds %v, want %v", p, got.Rect, src.Rect)
			continue
		}
		for y := range 3 {
			for x := range 5 {
				if got.NRGBAAt(x, y) != src.NRGBAAt(x, y) {
					t.Errorf("orientations %v: pixel (%d,%d) = %v, want %v", p, x, y, got.NRGBAAt(x, y), src.NRGBAAt(x, y))
				}
			}
		}
	}
}
