package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-jobscout/internal/app"
	"go-jobscout/internal/config"
	"go-jobscout/internal/scheduler"
	"go-jobscout/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML run configuration")
	verbose := flag.Bool("v", false, "enable debug logging")
	runNow := flag.Bool("now", false, "run once immediately instead of waiting for the first tick")
	flag.Parse()

	logger := app.NewLogger(os.Stderr, *verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("❌ failed to load config", "error", err)
		os.Exit(2)
	}
	if port, ok := config.EnvString("PORT"); ok {
		cfg.Server.Addr = ":" + port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("❌ failed to initialise", "error", err)
		os.Exit(2)
	}
	defer a.Close()

	if cfg.Server.Schedule != "" {
		sched, err := scheduler.New(cfg.Server.Schedule, func(ctx context.Context) error {
			_, err := a.RunOnce(ctx)
			return err
		}, logger)
		if err != nil {
			logger.Error("❌ invalid schedule", "error", err)
			os.Exit(2)
		}
		if err := sched.Start(ctx, *runNow); err != nil {
			logger.Error("❌ failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop(30 * time.Second)
	} else {
		logger.Info("ℹ️ no schedule configured, runs are triggered with POST /runs")
	}

	srv := server.New(ctx, a, a.Metrics().Registry, logger)
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		logger.Error("❌ server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("👋 shutdown complete")
}
