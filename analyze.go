package aidetect

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// AnalyzerSignal is one explainable measurement. Value is a string or a float64.
type AnalyzerSignal struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// AnalyzerResponse is the verdict for one request.
type AnalyzerResponse struct {
	Label         Label            `json:"label"`
	Confidence    float64          `json:"confidence"`
	Signals       []AnalyzerSignal `json:"signals"`
	SourceDataURL string           `json:"sourceDataUrl,omitempty"`
	ImageHash     string           `json:"imageHash,omitempty"`
}

// signalList accumulates signals in append order, which callers observe.
type signalList []AnalyzerSignal

func (s *signalList) add(typ string, value any) {
	*s = append(*s, AnalyzerSignal{Type: typ, Value: value})
}

func (s *signalList) addScore(typ string, v float64) {
	s.add(typ, roundTo(v, 3))
}

// Analyze produces a verdict for req. The caller is expected to have gated
// req through a RateLimiter and validated its shape.
//
// Signal order: source, c2pa, base_score, then entropy, edge_density, noise
// and exif_present when an image was decoded, then model_score.
func (a *Analyzer) Analyze(ctx context.Context, req AnalysisRequest) (*AnalyzerResponse, error) {
	start := time.Now()

	sourceKey := SourceKey(req)
	if sourceKey == "" {
		return nil, fmt.Errorf("%w: either dataUrl or url is required", ErrValidation)
	}

	base := ComputeConfidence(NormalizeKey(sourceKey))

	source := "url"
	if req.DataURL != "" {
		source = "upload"
	}

	signals := make(signalList, 0, 8) //nolint:mnd // fixed signal set
	signals.add("source", source)
	signals.add("c2pa", "unknown")
	signals.addScore("base_score", base)

	raw, err := a.loadSource(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &AnalyzerResponse{SourceDataURL: req.DataURL}

	var imageSignals *ImageSignals
	if raw != nil {
		normalized, err := a.Normalize(ctx, raw)
		if err != nil {
			return nil, err
		}
		imageSignals = &normalized.Signals
		resp.SourceDataURL = normalized.DataURL
		resp.ImageHash = normalized.PerceptualHash

		exif := "no"
		if normalized.Signals.ExifPresent {
			exif = "yes"
		}
		signals.addScore("entropy", normalized.Signals.Entropy)
		signals.addScore("edge_density", normalized.Signals.EdgeDensity)
		signals.addScore("noise", normalized.Signals.Noise)
		signals.add("exif_present", exif)
	}

	confidence := Fuse(base, imageSignals)
	signals.addScore("model_score", confidence)

	resp.Label = LabelFor(confidence)
	resp.Confidence = confidence
	resp.Signals = signals

	slog.Debug("aidetect: analyzed", "source", source, "label", resp.Label,
		"confidence", confidence, "base", base, "duration", time.Since(start))

	if a.cfg.OnAnalysis != nil {
		a.cfg.OnAnalysis(AnalysisEvent{
			Source:     source,
			Label:      resp.Label,
			Confidence: confidence,
			HasImage:   imageSignals != nil,
			Duration:   time.Since(start),
		})
	}

	return resp, nil
}

// loadSource returns the image bytes for req: decoded from the data URL when
// present, otherwise fetched from the URL.
func (a *Analyzer) loadSource(ctx context.Context, req AnalysisRequest) ([]byte, error) {
	if req.DataURL != "" {
		_, data, err := DecodeDataURL(req.DataURL)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	if req.URL != "" {
		return a.Fetch(ctx, req.URL)
	}
	return nil, nil
}
