package aidetect

import (
	"bytes"
	"log/slog"
	"strconv"

	"github.com/bep/imagemeta"
)

// ImageMetadata holds the embedded metadata facts the analyzer cares about,
// read from the original bytes before re-encoding strips them.
type ImageMetadata struct {
	EXIFTags    int // number of EXIF tags decoded
	Orientation int // EXIF orientation 1..8; 1 when absent
}

// ExifPresent reports whether the source carried a non-empty EXIF block.
func (m ImageMetadata) ExifPresent() bool {
	return m.EXIFTags > 0
}

// metadataFormats maps image.Decode format names to imagemeta formats.
// Other containers carry no metadata we can read.
var metadataFormats = map[string]imagemeta.ImageFormat{
	"jpeg": imagemeta.JPEG,
	"png":  imagemeta.PNG,
	"webp": imagemeta.WebP,
	"tiff": imagemeta.TIFF,
}

// ExtractImageMetadata parses EXIF from raw image bytes of the given format.
// Graceful degradation: unreadable metadata yields the zero-EXIF result.
func ExtractImageMetadata(data []byte, format string) ImageMetadata {
	meta := ImageMetadata{Orientation: 1}

	imageFormat, ok := metadataFormats[format]
	if !ok || len(data) == 0 {
		return meta
	}

	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: imageFormat,
		Sources:     imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Source == imagemeta.EXIF
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			meta.EXIFTags++
			if ti.Tag == "Orientation" {
				if o := orientationValue(ti.Value); o >= 1 && o <= 8 {
					meta.Orientation = o
				}
			}
			return nil
		},
	})
	if err != nil {
		slog.Debug("aidetect: metadata decode failed", "format", format, "error", err.Error())
	}

	return meta
}

// orientationValue extracts an integer from an EXIF tag value.
func orientationValue(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case uint16:
		return int(val)
	case uint32:
		return int(val)
	case float64:
		return int(val)
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0
		}
		return n
	case []any:
		if len(val) > 0 {
			return orientationValue(val[0])
		}
		return 0
	default:
		return 0
	}
}
