// Package cli provides common initialization shared by the smartexpense
// commands: environment loading, logging, configuration and opening the
// tracker on the configured backend.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"smartexpense/internal/backend"
	"smartexpense/internal/config"
	"smartexpense/internal/log"
	"smartexpense/internal/storage"
	"smartexpense/internal/tracker"
	"smartexpense/internal/voice"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the application logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Output = os.Stderr
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// Session is an opened tracker together with the resources backing it.
type Session struct {
	Tracker    *tracker.Tracker
	Repository *storage.Repository
	Recognizer voice.Recognizer
	cleanup    backend.CleanupFunc
}

// Close releases the backend and the recognizer.
func (s *Session) Close() error {
	if s.cleanup == nil {
		return nil
	}
	return s.cleanup()
}

// OpenSession creates the configured backend and loads the tracker from it.
// The recognizer is only connected when withVoice is set.
func OpenSession(ctx context.Context, cfg *config.Config, logger *log.Logger, withVoice bool) (*Session, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !withVoice {
		bc.AMQPURL = ""
	}

	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, err
	}

	repo := storage.NewRepository(res.Store, logger)
	trk, err := tracker.Open(ctx, repo, tracker.WithLogger(logger))
	if err != nil {
		res.Cleanup()
		return nil, fmt.Errorf("open tracker: %w", err)
	}

	return &Session{
		Tracker:    trk,
		Repository: repo,
		Recognizer: res.Recognizer,
		cleanup:    res.Cleanup,
	}, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
