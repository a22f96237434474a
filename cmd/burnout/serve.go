package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"burnout-risk/internal/api"
	"burnout-risk/internal/common"
	"burnout-risk/internal/metrics"
	"burnout-risk/internal/ml"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var port int // Overrides SERVER_PORT when non-zero

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve burnout predictions over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port != 0 {
			settings.ServerPort = port
		}
		return runServe()
	},
}

func runServe() error {
	m := metrics.New()
	wrapper := metrics.NewWrapper(m)
	defer func() {
		log.Info().Float64("error_rate", m.GetErrorRate(prometheus.DefaultGatherer)).Msg("Prediction error rate at shutdown")
	}()

	store := ml.NewModelStore(settings.ModelPath, wrapper)
	if err := loadInitialModel(store, activeFromRegistry); err != nil {
		// Serving without a model is allowed; /predict answers 503 until a reload succeeds.
		log.Warn().Err(err).Msg("No model loaded at startup")
		wrapper.ModelLoadedSet(false)
	}

	drift := ml.NewDriftDetector(ml.DriftDetectionConfig{
		WindowSize:     settings.Drift.WindowSize,
		MinSamples:     settings.Drift.MinSamples,
		AlertThreshold: settings.Drift.AlertThreshold,
	})
	predictor := ml.NewPredictor(store, wrapper, drift)

	server := api.NewModelServer(predictor, store, api.Options{
		Port:           settings.ServerPort,
		RequestTimeout: settings.RequestTimeout,
		Versions:       registryLister{},
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(server, errCh)
}

// loadInitialModel loads the artifact at the model path and falls back to the
// active registry version when the file is missing. active may be nil.
func loadInitialModel(store *ml.ModelStore, active func() (*ml.Artifact, error)) error {
	err := store.Load()
	if err == nil || active == nil || !errors.Is(err, common.ErrModelUnavailable) {
		return err
	}

	a, rerr := active()
	if rerr != nil {
		log.Debug().Err(rerr).Msg("No active model in registry")
		return err
	}
	if serr := store.Swap(a); serr != nil {
		return serr
	}
	log.Info().Str("version", a.Version).Msg("Loaded active model from registry")
	return nil
}

// activeFromRegistry opens the registry only for the lookup. The server never
// holds bbolt's exclusive file lock, which train needs to record runs.
func activeFromRegistry() (*ml.Artifact, error) {
	var a *ml.Artifact
	err := withRegistry(func(r *ml.Registry) error {
		var err error
		a, err = r.Active()
		return err
	})
	return a, err
}

// registryLister opens the registry for each GET /model/versions.
type registryLister struct{}

func (registryLister) List() ([]ml.VersionInfo, error) {
	var versions []ml.VersionInfo
	err := withRegistry(func(r *ml.Registry) error {
		var err error
		versions, err = r.List()
		return err
	})
	return versions, err
}

// waitForShutdown blocks until a signal arrives or the server fails, then
// shuts the server down with a bounded grace period.
func waitForShutdown(server *api.ModelServer, errCh <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			return err
		}
		return nil
	}

	log.Info().Msg("shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout reached, forcing exit")
		return err
	}
	log.Info().Msg("shutdown completed successfully")
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", 0, "HTTP port (default from SERVER_PORT)")
}
