package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heart-predictor/internal/cfg"
	"heart-predictor/internal/features"
	"heart-predictor/internal/logging"
	"heart-predictor/internal/metrics"
	"heart-predictor/internal/ml"
	"heart-predictor/internal/storage"
	"heart-predictor/internal/web"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("heartd exited with error")
		os.Exit(1)
	}
}

func run() error {
	c, err := cfg.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logCloser, err := logging.Setup(logging.Options{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
	}, os.Stderr)
	if err != nil {
		return fmt.Errorf("logging setup failed: %w", err)
	}
	defer logCloser.Close()

	ref, err := features.LoadReference(c.DatasetPath)
	if err != nil {
		return fmt.Errorf("reference dataset unavailable: %w", err)
	}

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	svc, err := ml.Load(c.ModelPath, ml.WithFeatureSpecs(ref.Specs), ml.WithMetrics(mw))
	if err != nil {
		return fmt.Errorf("model load failed: %w", err)
	}
	defer svc.Close()
	mw.ModelFeaturesSet(svc.NumFeatures())

	opts := web.Options{
		Addr:          c.ListenAddr(),
		ReadTimeout:   c.ReadTimeout,
		WriteTimeout:  c.WriteTimeout,
		ProgressDelay: c.ProgressDelay,
		ContactURL:    c.ContactURL,
		DefaultSeed:   c.DefaultSeed,
		Gatherer:      prometheus.DefaultGatherer,
		Recorder:      mw,
	}
	if store := initializeStorage(c); store != nil {
		defer store.Close()
		opts.Store = store
	}

	srv := web.NewServer(svc, opts)

	log.Info().
		Str("model_version", svc.Metadata().Version).
		Int("reference_rows", ref.Rows).
		Bool("storage", opts.Store != nil).
		Msg("heartd ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return serve(srv, c.ShutdownTimeout, sigChan)
}

func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		log.Info().Msg("no data path configured, outcome storage disabled")
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	return store
}

// serve runs srv until a signal arrives or the listener fails, then drains
// in-flight requests within timeout. A listener failure is returned.
func serve(srv *web.Server, timeout time.Duration, sigChan <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	}

	log.Info().Msg("shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown timeout, forcing exit: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("http server failed: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}
