package aidetect

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxSourcePixels rejects decompression bombs before full decode.
const maxSourcePixels = 64 * 1024 * 1024

// NormalizedImage is the canonical form of one analyzed image.
type NormalizedImage struct {
	JPEG    []byte      // re-encoded canvas, at most MaxDimension per side
	DataURL string      // JPEG as a data: URI
	Width   int         // canvas width
	Height  int         // canvas height
	Stats   image.Image // statistics copy, at most StatsDimension per side

	Signals        ImageSignals
	PerceptualHash string // 64-bit dHash as hex, empty if hashing failed
}

// Normalize decodes data, corrects orientation, bounds it to the canvas,
// re-encodes it as JPEG and measures the statistics copy.
func (a *Analyzer) Normalize(ctx context.Context, data []byte) (*NormalizedImage, error) {
	if int64(len(data)) > a.cfg.MaxImageBytes {
		return nil, fmt.Errorf("%w: image is %d bytes, limit %d", ErrPayloadTooLarge, len(data), a.cfg.MaxImageBytes)
	}

	if err := a.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for worker slot: %w", err)
	}
	defer a.slots.Release(1)

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: unsupported container %s", ErrDecode, mt.String())
	}

	imgCfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, mt.String(), err)
	}
	if imgCfg.Width <= 0 || imgCfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	if imgCfg.Width*imgCfg.Height > maxSourcePixels {
		return nil, fmt.Errorf("%w: image is %dx%d pixels", ErrPayloadTooLarge, imgCfg.Width, imgCfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}

	meta := ExtractImageMetadata(data, format)

	// Square bound: fit-then-rotate and rotate-then-fit agree on dimensions.
	canvas := applyOrientation(fitInside(src, a.cfg.MaxDimension), meta.Orientation)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: a.cfg.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %v", ErrInternal, err)
	}
	encoded := buf.Bytes()

	reencoded, err := jpeg.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: decode re-encoded jpeg: %v", ErrInternal, err)
	}
	stats := fitInside(reencoded, a.cfg.StatsDimension)

	out := &NormalizedImage{
		JPEG:    encoded,
		DataURL: EncodeDataURL(encoded, "image/jpeg"),
		Width:   canvas.Rect.Dx(),
		Height:  canvas.Rect.Dy(),
		Stats:   stats,
		Signals: ExtractSignals(stats, meta.ExifPresent()),
	}

	if hash, err := goimagehash.DifferenceHash(canvas); err == nil {
		out.PerceptualHash = fmt.Sprintf("%016x", hash.GetHash())
	} else {
		slog.Debug("aidetect: perceptual hash failed", "error", err.Error())
	}

	return out, nil
}

// fitDimensions scales (w, h) to fit inside bound x bound, preserving aspect
// ratio. Images already inside the bound are never enlarged.
func fitDimensions(w, h, bound int) (int, int) {
	if w <= bound && h <= bound {
		return w, h
	}
	scale := min(float64(bound)/float64(w), float64(bound)/float64(h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return min(nw, bound), min(nh, bound)
}

// fitInside returns img resized with fitDimensions as an *image.NRGBA.
func fitInside(img image.Image, bound int) *image.NRGBA {
	b := img.Bounds()
	nw, nh := fitDimensions(b.Dx(), b.Dy(), bound)
	if nw == b.Dx() && nh == b.Dy() {
		return toNRGBA(img)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
