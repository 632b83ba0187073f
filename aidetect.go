package aidetect

import (
	"net/http"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxImageBytes is the byte ceiling for uploaded or fetched images (10 MiB).
const DefaultMaxImageBytes = 10 * 1024 * 1024

const (
	defaultFetchTimeout   = 15 * time.Second
	defaultMaxDimension   = 512
	defaultStatsDimension = 256
	defaultJPEGQuality    = 88
)

// MediaType is the kind of media a request carries.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaFrame MediaType = "frame"
)

// AnalysisRequest is one analysis call. Exactly one of DataURL or URL is
// expected; DataURL wins when both are set.
type AnalysisRequest struct {
	MediaType MediaType `json:"mediaType" validate:"required,oneof=image frame"`
	DataURL   string    `json:"dataUrl,omitempty" validate:"required_without=URL"`
	URL       string    `json:"url,omitempty" validate:"required_without=DataURL"`
}

// Config holds all dependencies injected by the consumer.
type Config struct {
	HTTPClient *http.Client // optional: client for remote fetches (nil = http.DefaultClient)
	UserAgent  string       // default: "Mozilla/5.0 (compatible; go-aidetect/1.0)"

	MaxImageBytes  int64         // default: DefaultMaxImageBytes
	FetchTimeout   time.Duration // default: 15s
	MaxDimension   int           // normalized canvas bound (default: 512)
	StatsDimension int           // statistics canvas bound (default: 256)
	JPEGQuality    int           // re-encode quality (default: 88)

	// Workers bounds concurrent decode/convolution work (default: runtime.NumCPU()).
	Workers int

	// Optional callback for metrics/logging.
	OnAnalysis func(AnalysisEvent)
}

// AnalysisEvent is reported through Config.OnAnalysis after every successful analysis.
type AnalysisEvent struct {
	Source     string // "upload" or "url"
	Label      Label
	Confidence float64
	HasImage   bool
	Duration   time.Duration
}

// defaults fills zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; go-aidetect/1.0)"
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = DefaultMaxImageBytes
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	if c.MaxDimension <= 0 {
		c.MaxDimension = defaultMaxDimension
	}
	if c.StatsDimension <= 0 {
		c.StatsDimension = defaultStatsDimension
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = defaultJPEGQuality
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Analyzer runs the analysis pipeline. It is safe for concurrent use.
type Analyzer struct {
	cfg   Config
	slots *semaphore.Weighted
}

// New returns an Analyzer for cfg with defaults applied.
func New(cfg Config) *Analyzer {
	cfg.defaults()
	return &Analyzer{
		cfg:   cfg,
		slots: semaphore.NewWeighted(int64(cfg.Workers)),
	}
}
