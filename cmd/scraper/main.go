package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go-jobscout/internal/app"
	"go-jobscout/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML run configuration")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logger := app.NewLogger(os.Stderr, *verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("❌ failed to load config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("❌ failed to initialise", "error", err)
		os.Exit(2)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("⚠️ close failed", "error", err)
		}
	}()

	logger.Info("🚀 starting job scout", "config", *configPath)
	res, err := a.RunOnce(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("⏹️ interrupted, partial report written", "postings", res.Len())
	case err != nil:
		logger.Error("❌ run failed", "error", err)
		a.Close()
		os.Exit(1)
	default:
		logger.Info("✅ done", "postings", res.Len())
	}
}
