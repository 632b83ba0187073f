// Command aidetect serves the AI-image analyzer over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anatolykoptev/go-aidetect"
	"github.com/anatolykoptev/go-aidetect/internal/config"
	"github.com/anatolykoptev/go-aidetect/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(true)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	analyzer := aidetect.New(aidetect.Config{
		MaxImageBytes: cfg.MaxBodyBytes,
		FetchTimeout:  cfg.FetchTimeout,
		Workers:       cfg.Workers,
		OnAnalysis: func(ev aidetect.AnalysisEvent) {
			log.Debug("analysis", "source", ev.Source, "label", ev.Label,
				"confidence", ev.Confidence, "image", ev.HasImage, "duration", ev.Duration)
		},
	})

	samples := &aidetect.SampleSource{}
	if cfg.SamplesEnabled() {
		samples.Provider = &aidetect.GoogleCSEProvider{APIKey: cfg.GoogleCSEAPIKey, CX: cfg.GoogleCSECX}
	}

	router, err := httpapi.NewRouter(httpapi.Options{
		Analyzer:     analyzer,
		Limiter:      limiter,
		Samples:      samples,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Logger:       log,
		Debug:        strings.EqualFold(cfg.LogLevel, "debug"),
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

// newLimiter picks the Redis limiter when REDIS_ADDR is set, otherwise the
// in-memory one. The returned func releases its resources.
func newLimiter(ctx context.Context, cfg config.Config) (aidetect.RateLimiter, func(), error) {
	opts := aidetect.RateLimitOpts{
		Max:        cfg.RateLimitMax,
		Window:     cfg.RateLimitWindow,
		MaxBuckets: cfg.RateLimitMaxBuckets,
	}
	if cfg.RedisAddr == "" {
		return aidetect.NewFixedWindowLimiter(opts), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	slog.Info("rate limiter backed by redis", "addr", cfg.RedisAddr)
	return aidetect.NewRedisLimiter(client, "", opts), func() { _ = client.Close() }, nil
}
