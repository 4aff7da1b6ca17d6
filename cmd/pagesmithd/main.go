// Command pagesmithd serves clone runs over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"pagesmith/internal/artifact"
	"pagesmith/internal/capture"
	"pagesmith/internal/config"
	"pagesmith/internal/llmclient"
	"pagesmith/internal/runner"
	"pagesmith/internal/runstore"
	"pagesmith/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := newLogger(cfg.Env)

	ctx := context.Background()

	renderer, err := capture.NewRodRenderer(log)
	if err != nil {
		log.Fatal().Err(err).Msg("browser launch failed")
	}
	defer renderer.Close()

	var llm llmclient.VisionClient
	if cfg.APIKey != "" {
		cli, err := llmclient.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("provider init failed")
		}
		defer cli.Close()
		llm = cli
	} else {
		log.Warn().Msg("GEMINI_API_KEY is not set, runs will emit scaffolds")
	}

	var store *runstore.Store
	if cfg.PGDSN != "" {
		store, err = runstore.NewPostgres(cfg.PGDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("run store connect failed")
		}
	} else {
		store = runstore.New()
	}
	defer store.Close()

	var mirror *artifact.S3Store
	if cfg.Artifact.Enabled {
		mirror, err = artifact.NewS3Store(artifact.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("artifact mirror init failed")
		}
	}

	hub := runner.NewHub()
	srv := &server.Server{
		Runner: &runner.Runner{
			Renderer: renderer,
			LLM:      llm,
			Store:    store,
			Mirror:   mirror,
			Hub:      hub,
			Log:      log,
		},
		Store:   store,
		Hub:     hub,
		Log:     log,
		DataDir: cfg.DataDir,
		Mirror:  mirror,
		Defaults: server.Defaults{
			Refine:     cfg.Refine,
			Width:      cfg.Width,
			Height:     cfg.Height,
			Wait:       capture.ParseWaitUntil(cfg.Wait),
			NavTimeout: cfg.NavTimeout,
			FullPage:   cfg.FullPage,
			AI:         cfg.APIKey != "",
		},
	}

	httpServer := &http.Server{
		Addr:              cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Port).Msg("pagesmithd listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func newLogger(env string) zerolog.Logger {
	if env == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
