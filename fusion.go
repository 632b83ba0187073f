package aidetect

import (
	"fmt"
	"math"
)

// Label is the three-way verdict.
type Label string

const (
	LabelLikelyAI   Label = "likely_ai"
	LabelUnclear    Label = "unclear"
	LabelLikelyReal Label = "likely_real"
)

// Fusion weights.
const (
	baseWeight  = 0.35
	imageWeight = 0.65

	entropyWeight = 0.35
	edgeWeight    = 0.35
	noiseWeight   = 0.25

	entropyScale = 7.0
	edgeScale    = 0.6
	noiseScale   = 0.35

	exifBonus   = 0.05
	exifPenalty = -0.03
)

type labelBand struct {
	lower float64 // inclusive
	label Label
}

// labelBands is evaluated top-down; the first band whose lower bound is not
// above the confidence wins. The last band starts at 0 so [0,1] is covered.
var labelBands = []labelBand{
	{lower: 0.75, label: LabelLikelyAI},
	{lower: 0.45, label: LabelUnclear},
	{lower: 0, label: LabelLikelyReal},
}

// Clamp01 clamps v to [0,1]. NaN and ±Inf map to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

// ImageScore folds image signals into a single [0,1] score.
func ImageScore(sig ImageSignals) float64 {
	bonus := exifPenalty
	if sig.ExifPresent {
		bonus = exifBonus
	}
	combined := entropyWeight*Clamp01(sig.Entropy/entropyScale) +
		edgeWeight*Clamp01(sig.EdgeDensity/edgeScale) +
		noiseWeight*Clamp01(sig.Noise/noiseScale) +
		bonus
	return Clamp01(combined)
}

// Fuse combines the fingerprint base score with the image score. Without
// image signals the base score is returned as is.
func Fuse(base float64, sig *ImageSignals) float64 {
	if sig == nil {
		return Clamp01(base)
	}
	return Clamp01(baseWeight*base + imageWeight*ImageScore(*sig))
}

// LabelFor maps a confidence to its label.
func LabelFor(confidence float64) Label {
	for _, b := range labelBands {
		if confidence >= b.lower {
			return b.label
		}
	}
	return LabelLikelyReal
}

// FormatConfidence renders confidence as a whole percentage, e.g. "73%".
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(confidence*100)))
}
