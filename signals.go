package aidetect

import (
	"image"
	"math"
)

// ImageSignals are the structural measurements taken from one analyzed image.
type ImageSignals struct {
	Entropy     float64 // bits, roughly 0..8
	EdgeDensity float64 // mean |high-pass| / 255, not clamped
	Noise       float64 // first-channel std-dev / 128
	ExifPresent bool
}

// highPassKernel is the 3x3 Laplacian-style edge kernel.
var highPassKernel = [9]float64{
	-1, -1, -1,
	-1, 8, -1,
	-1, -1, -1,
}

// ExtractSignals measures img. exifPresent comes from the original bytes,
// since re-encoding may strip metadata.
func ExtractSignals(img image.Image, exifPresent bool) ImageSignals {
	n := toNRGBA(img)
	gray := luma(n)
	w, h := n.Rect.Dx(), n.Rect.Dy()

	return ImageSignals{
		Entropy:     entropy(gray),
		EdgeDensity: edgeDensity(gray, w, h),
		Noise:       channelStdDev(n, 0) / 128,
		ExifPresent: exifPresent,
	}
}

// luma converts to 8-bit grayscale with the same weights as color.GrayModel.
func luma(n *image.NRGBA) []uint8 {
	w, h := n.Rect.Dx(), n.Rect.Dy()
	out := make([]uint8, w*h)
	for y := range h {
		row := n.Pix[y*n.Stride:]
		for x := range w {
			r, g, b := uint32(row[x*4]), uint32(row[x*4+1]), uint32(row[x*4+2])
			out[y*w+x] = uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 16)
		}
	}
	return out
}

// entropy is the Shannon entropy in bits of the 256-bin intensity histogram.
func entropy(samples []uint8) float64 {
	if len(samples) == 0 {
		return 0
	}
	var hist [256]int
	for _, v := range samples {
		hist[v]++
	}
	total := float64(len(samples))
	var e float64
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		e -= p * math.Log2(p)
	}
	return e
}

// edgeDensity convolves gray with highPassKernel, replicating border pixels,
// and returns the summed absolute response normalized by samples*255.
func edgeDensity(gray []uint8, w, h int) float64 {
	if w == 0 || h == 0 {
		return 0
	}
	at := func(x, y int) float64 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return float64(gray[y*w+x])
	}

	var sum float64
	for y := range h {
		for x := range w {
			var acc float64
			k := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					acc += highPassKernel[k] * at(x+dx, y+dy)
					k++
				}
			}
			sum += math.Abs(acc)
		}
	}
	return sum / float64(w*h*255)
}

// channelStdDev is the sample standard deviation of channel c (0=R, 1=G, 2=B).
func channelStdDev(n *image.NRGBA, c int) float64 {
	w, h := n.Rect.Dx(), n.Rect.Dy()
	count := w * h
	if count < 2 {
		return 0
	}
	var sum, sumSq float64
	for y := range h {
		row := n.Pix[y*n.Stride:]
		for x := range w {
			v := float64(row[x*4+c])
			sum += v
			sumSq += v * v
		}
	}
	variance := (sumSq - sum*sum/float64(count)) / float64(count-1)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}
