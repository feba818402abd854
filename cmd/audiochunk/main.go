package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bnema/audiochunk/config"
	"github.com/bnema/audiochunk/internal/adapter/converter/ffmpeg"
	"github.com/bnema/audiochunk/internal/adapter/downloader/httpget"
	HTTPAdapter "github.com/bnema/audiochunk/internal/adapter/http"
	"github.com/bnema/audiochunk/internal/adapter/http/ratelimit"
	"github.com/bnema/audiochunk/internal/adapter/storage/jsonfile"
	sqlitestore "github.com/bnema/audiochunk/internal/adapter/storage/sqlite"
	"github.com/bnema/audiochunk/internal/infrastructure/logger"
	"github.com/bnema/audiochunk/internal/port"
	"github.com/bnema/audiochunk/internal/service"
)

const (
	shutdownTimeout = 30 * time.Second
	// drainTimeout bounds how long in-flight conversions may finish after
	// the HTTP server stopped.
	drainTimeout        = 10 * time.Minute
	limiterPruneEvery   = 5 * time.Minute
	rateLimitWindowSize = time.Hour
)

func main() {
	if err := run(); err != nil {
		logger.Error.Printf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.Warn.Printf("%v, keeping info", err)
	}

	logger.Info.Printf("starting audiochunk on port %d (store=%s, max concurrent=%d)", cfg.Port, cfg.JobStore, cfg.MaxConcurrent)

	layout := service.Layout{UploadDir: cfg.UploadDir, ResultDir: cfg.ResultDir, TempDir: cfg.TempDir}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := layout.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create work directories: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error.Printf("close store: %v", err)
		}
	}()

	converter := ffmpeg.NewConverter(cfg.FFmpegPath, cfg.FFprobePath)
	downloader := httpget.New(cfg.DownloadTimeout, cfg.MaxUploadBytes())
	eventBus := service.NewEventBus()

	runner := service.NewJobRunner(store, downloader, converter, converter, eventBus, layout).
		WithTimeout(cfg.JobTimeout)
	queue := service.NewAdmissionQueue(cfg.MaxConcurrent, runner).WithEvents(eventBus)
	conversions := service.NewConversionService(store, queue, layout)
	status := service.NewStatusReporter(queue, store, layout)

	// Must finish before the first submission is accepted.
	if _, err := conversions.RecoverInterrupted(ctx); err != nil {
		return fmt.Errorf("failed to recover interrupted jobs: %w", err)
	}

	limiter := ratelimit.NewSubmissionLimiter(cfg.RateLimitPerHour, rateLimitWindowSize)
	server := HTTPAdapter.NewServer(conversions, status, eventBus, HTTPAdapter.ServerConfig{
		Defaults: HTTPAdapter.Defaults{
			ChunkSizeMB:   cfg.ChunkSizeMB,
			Bitrate:       cfg.Bitrate,
			MaxUploadSize: cfg.MaxUploadBytes(),
		},
		AllowedOrigins: cfg.AllowedOrigins,
		Limiter:        limiter,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server,
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       30 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info.Printf("server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info.Printf("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error.Printf("http shutdown error: %v", err)
		}
		return nil
	})

	// Periodic cleanup of expired results
	g.Go(func() error {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conversions.Cleanup(gctx, cfg.ResultRetention); err != nil {
					logger.Error.Printf("cleanup failed: %v", err)
				}
			case <-gctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		return limiter.Run(gctx, limiterPruneEvery)
	})

	err = g.Wait()

	// Running conversions are never cancelled; wait for them to settle.
	stats := queue.Stats()
	if stats.Running > 0 || stats.Waiting > 0 {
		logger.Info.Printf("waiting for %d running and %d queued job(s)", stats.Running, stats.Waiting)
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if waitErr := queue.Wait(drainCtx); waitErr != nil {
		logger.Warn.Printf("gave up waiting for jobs: %v", waitErr)
	}

	logger.Info.Printf("shutdown complete")
	return err
}

func openStore(ctx context.Context, cfg *config.Config) (port.JobStore, func() error, error) {
	switch cfg.JobStore {
	case config.StoreJSON:
		s, err := jsonfile.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	default:
		s, err := sqlitestore.NewStore(ctx, cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}
