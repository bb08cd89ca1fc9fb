package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/qepting91/topgg/autoposter"
	"github.com/qepting91/topgg/internal/relay"
	"github.com/qepting91/topgg/webhook"
)

func main() {
	// 1. Setup
	godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configPath := os.Getenv("RELAY_CONFIG")
	if configPath == "" {
		configPath = "relay.yaml"
	}

	cfg, err := relay.Load(configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := relay.Validate(cfg); err != nil {
		logger.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	// 2. Posting pipeline
	metrics := relay.NewMetrics()
	poster, err := relay.NewPoster(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize poster", "error", err)
		os.Exit(1)
	}
	logger.Info("Poster initialized", "mode", cfg.Mode)

	ap, err := autoposter.New(relay.NewCountingPoster(poster, metrics), cfg.Interval())
	if err != nil {
		logger.Error("Failed to start autoposter", "error", err)
		os.Exit(1)
	}

	// 3. Vote log writer
	if dir := filepath.Dir(cfg.VoteLog); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("Failed to create vote log directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	voteQueue := make(chan relay.VoteRecord, 100)
	var writerWg sync.WaitGroup
	recorder := &relay.Recorder{FilePath: cfg.VoteLog}
	writerWg.Add(1)
	go recorder.Start(&writerWg, voteQueue)

	// 4. Webhook intake
	listener, err := webhook.NewListener(cfg.WebhookSecret, webhook.VoteHandlerFunc(
		func(ctx context.Context, vote webhook.Vote) error {
			metrics.VotesReceived.Inc()
			voteQueue <- relay.NewVoteRecord(vote)
			logger.InfoContext(ctx, "vote received",
				"receiver", vote.ReceiverID,
				"voter", vote.VoterID,
				"test", vote.IsTest)
			return nil
		}), webhook.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to create webhook listener", "error", err)
		os.Exit(1)
	}

	// 5. HTTP server
	router := relay.NewRouter(listener, ap.Handle(), metrics, cfg.WebhookSecret, cfg.VoteLog, logger)
	server := &http.Server{Addr: cfg.Addr, Handler: router}

	go func() {
		logger.Info("Starting relay", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// 6. Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}

	ap.Stop()
	<-ap.Done()
	close(voteQueue)
	writerWg.Wait()
	logger.Info("Relay stopped")
}
