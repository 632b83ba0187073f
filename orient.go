package aidetect

import (
	"image"

	"github.com/disintegration/imaging"
)

// toNRGBA returns img as an *image.NRGBA with its origin at (0,0).
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// applyOrientation returns src transformed so that EXIF orientation o
// displays upright. Orientation 1 and unknown values return src unchanged.
func applyOrientation(src *image.NRGBA, o int) *image.NRGBA {
	switch o {
	case 2:
		return imaging.FlipH(src)
	case 3:
		return imaging.Rotate180(src)
	case 4:
		return imaging.FlipV(src)
	case 5:
		return imaging.Transpose(src)
	case 6:
		return imaging.Rotate270(src) // 90 clockwise
	case 7:
		return imaging.Transverse(src)
	case 8:
		return imaging.Rotate90(src) // 90 counter-clockwise
	default:
		return src
	}
}
