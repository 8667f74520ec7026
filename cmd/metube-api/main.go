package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lrstanley/go-ytdlp"

	"github.com/JaMes-pong/MeTube/internal/config"
	"github.com/JaMes-pong/MeTube/internal/engine"
	server "github.com/JaMes-pong/MeTube/internal/http"
	"github.com/JaMes-pong/MeTube/internal/jobs"
	"github.com/JaMes-pong/MeTube/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.Load(*configPath)

	// Set up logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	if err := storage.EnsureDir(cfg.Storage.Dir); err != nil {
		log.Fatalf("storage root unavailable: %v", err)
	}

	// yt-dlp must be on PATH; download a managed copy when it is not.
	ytdlp.MustInstall(context.Background(), nil)

	st := jobs.NewStore()
	fetcher := engine.NewYTDLP()
	runner := jobs.NewRunner(cfg, st, fetcher, logger)
	streamer := jobs.NewStreamer(st, cfg.Stream.PollInterval())
	retention := jobs.NewManager(st, cfg.Storage.Dir, cfg.Retention.CleanupDelay(), logger)

	// The storage root is emptied on start and on graceful stop; jobs
	// spanning a restart are lost and that loss is accepted.
	retention.SweepAll()

	srv := server.NewServer(cfg, server.Deps{
		Store:     st,
		Runner:    runner,
		Streamer:  streamer,
		Retention: retention,
		Fetcher:   fetcher,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen() }()

	select {
	case err := <-errCh:
		log.Fatalf("server failed: %v", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	retention.SweepAll()
}
