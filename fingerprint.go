package aidetect

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

const (
	// FingerprintDivisor normalizes the 32-bit digest prefix into [0,1].
	FingerprintDivisor = 0xFFFFFFFF

	// LegacyFingerprintDivisor is the 7-digit variant seen in older builds.
	// Substituting it for FingerprintDivisor reproduces their scores.
	LegacyFingerprintDivisor = 0xFFFFFFF
)

// NormalizeKey canonicalizes a request's identifying string: surrounding
// whitespace is trimmed and the result lowercased.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SourceKey returns the identifying string of req. DataURL takes precedence over URL.
func SourceKey(req AnalysisRequest) string {
	if req.DataURL != "" {
		return req.DataURL
	}
	return req.URL
}

// ComputeConfidence derives a content-independent base confidence from key.
// The same key always yields the same value.
func ComputeConfidence(key string) float64 {
	return computeConfidenceWith(key, FingerprintDivisor)
}

func computeConfidenceWith(key string, divisor uint64) float64 {
	sum := sha256.Sum256([]byte(key))
	prefix := hex.EncodeToString(sum[:4])
	n, err := strconv.ParseUint(prefix, 16, 32)
	if err != nil {
		return 0
	}
	return Clamp01(roundTo(float64(n)/float64(divisor), 4))
}

// roundTo rounds v half away from zero to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
