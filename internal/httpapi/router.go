// Package httpapi is the HTTP boundary of the analyzer: request parsing,
// validation, rate limiting and status mapping.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/anatolykoptev/go-aidetect"
)

const requestIDHeader = "X-Request-Id"

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req aidetect.AnalysisRequest) (*aidetect.AnalyzerResponse, error)
}

// SampleLister returns sample images.
type SampleLister interface {
	Samples(ctx context.Context) []aidetect.SampleImage
}

// Options configures the router.
type Options struct {
	Analyzer     Analyzer             // required
	Limiter      aidetect.RateLimiter // required
	Samples      SampleLister         // optional: nil disables /api/samples
	MaxBodyBytes int64                // default: aidetect.DefaultMaxImageBytes
	Logger       *slog.Logger         // default: slog.Default()
	Debug        bool                 // gin debug mode
}

// NewRouter builds the gin engine with recovery, request ids, access logging and open CORS.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("http router requires an analyzer")
	}
	if opts.Limiter == nil {
		return nil, fmt.Errorf("http router requires a rate limiter")
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = aidetect.DefaultMaxImageBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(loggingMiddleware(opts.Logger))

	// Public demo endpoint: any origin may call it.
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type"},
		ExposeHeaders:   []string{"Retry-After", requestIDHeader},
		MaxAge:          24 * time.Hour,
	}))

	h := &handler{
		analyzer: opts.Analyzer,
		limiter:  opts.Limiter,
		samples:  opts.Samples,
		maxBody:  opts.MaxBodyBytes,
		log:      opts.Logger,
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	api.POST("/analyze", h.analyze)
	if opts.Samples != nil {
		api.GET("/samples", h.listSamples)
	}

	return engine, nil
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func loggingMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDHeader),
		)
	}
}
