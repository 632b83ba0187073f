package aidetect

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const base64Marker = ";base64,"

// DecodeDataURL splits a data: URI into its MIME type and decoded payload.
// The last ";base64," separates the two, and neither part may be empty or
// contain a line break.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok || strings.ContainsAny(rest, "\r\n") {
		return "", nil, fmt.Errorf("%w: invalid data URL", ErrValidation)
	}
	i := strings.LastIndex(rest, base64Marker)
	if i <= 0 || i+len(base64Marker) == len(rest) {
		return "", nil, fmt.Errorf("%w: invalid data URL", ErrValidation)
	}
	mime, payload := rest[:i], rest[i+len(base64Marker):]

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", nil, fmt.Errorf("%w: invalid base64 payload: %v", ErrValidation, err)
		}
	}
	return mime, data, nil
}

// EncodeDataURL creates a data: URI from bytes and MIME type.
func EncodeDataURL(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
