// Package main implements the HTTP API server for Studybank.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/dsjohal14/studybank/internal/app"
	apihttp "github.com/dsjohal14/studybank/internal/http"
	"github.com/dsjohal14/studybank/internal/libs/config"
	"github.com/dsjohal14/studybank/internal/libs/obs"
	"github.com/dsjohal14/studybank/internal/scope/bank"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Init logger
	obs.InitLoggerWithOptions(obs.LogOptions{Level: cfg.LogLevel, File: cfg.LogFile})
	logger := obs.Logger("api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	c, err := app.New(initCtx, cfg, logger)
	cancel()
	if err != nil {
		if errors.Is(err, bank.ErrDatasetLoad) {
			logger.Fatal().Err(err).Str("source", cfg.QuestionsSource).Msg("cannot start without a question bank")
		}
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer func() { _ = c.Close() }()

	handler := apihttp.NewHandler(c.Bank, c.Pipeline, c.Answers, logger)

	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Logger(handler.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server failed")
	}
}
