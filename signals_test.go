package aidetect

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func fillNRGBA(w, h int, at func(x, y int) color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, at(x, y))
		}
	}
	return img
}

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func TestExtractSignals_SolidImage(t *testing.T) {
	t.Parallel()

	img := fillNRGBA(16, 16, func(_, _ int) color.NRGBA { return color.NRGBA{R: 90, G: 90, B: 90, A: 255} })
	sig := ExtractSignals(img, false)

	if sig.Entropy != 0 {
		t.Errorf("Entropy = %v, want 0", sig.Entropy)
	}
	if sig.EdgeDensity != 0 {
		t.Errorf("EdgeDensity = %v, want 0", sig.EdgeDensity)
	}
	if sig.Noise != 0 {
		t.Errorf("Noise = %v, want 0", sig.Noise)
	}
	if sig.ExifPresent {
		t.Error("ExifPresent = true, want false")
	}
}

func TestExtractSignals_Checkerboard(t *testing.T) {
	t.Parallel()

	img := fillNRGBA(16, 16, func(x, y int) color.NRGBA {
		if (x+y)%2 == 0 {
			return white
		}
		return black
	})
	sig := ExtractSignals(img, true)

	if math.Abs(sig.Entropy-1) > 1e-12 {
		t.Errorf("Entropy = %v, want 1 bit", sig.Entropy)
	}
	// Interior pixels respond with |±1020| / 255 = 4; the density is not clamped.
	if sig.EdgeDensity <= 1 {
		t.Errorf("EdgeDensity = %v, want > 1 for a one-pixel checkerboard", sig.EdgeDensity)
	}
	wantNoise := 127.5 * math.Sqrt(256.0/255.0) / 128
	if math.Abs(sig.Noise-wantNoise) > 1e-9 {
		t.Errorf("Noise = %v, want %v", sig.Noise, wantNoise)
	}
	if !sig.ExifPresent {
		t.Error("ExifPresent = false, want true")
	}
}

func TestExtractSignals_HalfSplit(t *testing.T) {
	t.Parallel()

	img := fillNRGBA(8, 8, func(x, _ int) color.NRGBA {
		if x < 4 {
			return black
		}
		return white
	})
	sig := ExtractSignals(img, false)

	if math.Abs(sig.Entropy-1) > 1e-12 {
		t.Errorf("Entropy = %v, want 1 bit", sig.Entropy)
	}
	// Only the two columns along the boundary respond: 8 rows * 2 columns * 3*255.
	want := float64(8*2*3*255) / float64(64*255)
	if math.Abs(sig.EdgeDensity-want) > 1e-12 {
		t.Errorf("EdgeDensity = %v, want %v", sig.EdgeDensity, want)
	}
}

func TestLuma(t *testing.T) {
	t.Parallel()

	img := fillNRGBA(3, 1, func(x, _ int) color.NRGBA {
		switch x {
		case 0:
			return black
		case 1:
			return white
		default:
			return color.NRGBA{R: 255, A: 255}
		}
	})
	got := luma(img)
	want := color.GrayModel.Convert(color.NRGBA{R: 255, A: 255}).(color.Gray).Y
	if got[0] != 0 || got[1] != 255 || got[2] != want {
		t.Errorf("luma = %v, want [0 255 %d]", got, want)
	}
}

func TestEntropy_Empty(t *testing.T) {
	t.Parallel()

	if got := entropy(nil); got != 0 {
		t.Errorf("entropy(nil) = %v, want 0", got)
	}
	if got := edgeDensity(nil, 0, 0); got != 0 {
		t.Errorf("edgeDensity(empty) = %v, want 0", got)
	}
}

func TestEntropy_Uniform(t *testing.T) {
	t.Parallel()

	samples := make([]uint8, 256*4)
	for i := range samples {
		samples[i] = uint8(i % 256)
	}
	if got := entropy(samples); math.Abs(got-8) > 1e-12 {
		t.Errorf("entropy(uniform) = %v, want 8", got)
	}
}
