package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/radulovicigor/CBCGchatbot/internal/app"
	"github.com/radulovicigor/CBCGchatbot/internal/config"
	"github.com/radulovicigor/CBCGchatbot/internal/http"
	"github.com/radulovicigor/CBCGchatbot/internal/ingest"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about SEPA payments and CBCG news, citing at most one source.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: CBCG Chatbot API
//   description: |
//     Question answering over the SEPA Q&A document and scraped CBCG news.
//     Each answer carries zero or one supporting source.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

// collectionFile is the scraper output watched for changes.
const collectionFile = "parsed_data.json"

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		_ = a.Close()
	}()

	if !cfg.UseHostedRetrieval() {
		if err := a.LoadIndex(ctx); err != nil {
			// Lexical retrieval still works without the semantic index.
			slog.Warn("Semantic index unavailable", "error", err)
		}
	}

	if cfg.WatchData {
		path := filepath.Join(cfg.DataDir, collectionFile)
		watcher, err := ingest.NewWatcher(path, ingest.DefaultDebounce, func(ctx context.Context) error {
			return a.Pipeline.Refresh(ctx, path)
		})
		if err != nil {
			log.Fatalf("Failed to start collection watcher: %v", err)
		}
		go func() {
			_ = watcher.Run(ctx)
		}()
	}

	router := http.NewRouter(&http.Deps{AskService: a.Ask})

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
}
