package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"smartexpense/internal/cli"
	apphttp "smartexpense/internal/http"
	"smartexpense/internal/log"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg, logger := state.cfg, state.logger

	ctx, stop := cli.SignalContext(parent)
	defer stop()

	session, err := cli.OpenSession(ctx, cfg, logger, cfg.VoiceEnabled())
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	opts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(session.Repository),
		apphttp.WithVoiceTimeout(cfg.VoiceTimeout),
	}
	if session.Recognizer != nil {
		opts = append(opts, apphttp.WithRecognizer(session.Recognizer))
	}
	srv := apphttp.NewServer(":"+cfg.Port, session.Tracker, opts...)
	srv.ReadTimeout = 10 * time.Second
	// Server-side voice requests wait for the recognizer.
	srv.WriteTimeout = cfg.VoiceTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting smartexpense server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"voice_enabled", session.Recognizer != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
