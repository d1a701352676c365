// Package app wires the configured collaborators into a runnable pipeline.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"go-jobscout/internal/ai"
	"go-jobscout/internal/browser"
	"go-jobscout/internal/config"
	"go-jobscout/internal/database"
	"go-jobscout/internal/history"
	"go-jobscout/internal/metrics"
	"go-jobscout/internal/models"
	"go-jobscout/internal/reporter"
	"go-jobscout/internal/runner"
	"go-jobscout/internal/scraper"
	"go-jobscout/internal/scraper/indeed"
	"go-jobscout/internal/scraper/itviec"
	"go-jobscout/internal/scraper/linkedin"
	"go-jobscout/internal/scraper/topcv"
)

// App is built once from a validated config and is safe for concurrent use.
// At most one run executes at a time.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
	tasks   []models.Task
	runner  *runner.Runner
	history history.Store
	sink    reporter.Sink

	running atomic.Bool
	mu      sync.Mutex
	latest  *models.RunResult
}

// New builds every collaborator. Task construction errors (unknown site, unmappable
// filter, missing profile file) surface here, before any browser starts.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := metrics.New()

	registry := NewRegistry(cfg.Sites, logger)
	tasks, err := config.BuildTasks(cfg, registry)
	if err != nil {
		return nil, err
	}

	store, err := newHistory(ctx, cfg.History, logger)
	if err != nil {
		return nil, err
	}

	var classifier runner.Classifier
	if cfg.UsesLLM() {
		llm, err := ai.NewClient(ai.Config{
			Provider:    cfg.LLM.Provider,
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, nil)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		classifier = ai.NewGate(llm, ai.GateOptions{
			Cooldown: cfg.LLM.Cooldown,
			Timeout:  cfg.LLM.Timeout,
			Metrics:  m,
			Logger:   logger,
		})
	}

	sink, err := newSink(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	sessionOpts := scraper.SessionOptions{
		Policy: scraper.RetryPolicy{
			LoadTimeout:       cfg.Browser.LoadTimeout,
			MaxLoadAttempts:   cfg.Browser.MaxLoadAttempts,
			Backoff:           cfg.Browser.RetryBackoff,
			BackoffMax:        cfg.Browser.RetryBackoffMax,
			MaxBypassAttempts: cfg.Browser.MaxBypassAttempts,
		},
		MaxPages: cfg.Browser.MaxPages,
		Bypasser: browser.HumanBypasser{Wait: cfg.Browser.BypassWait, Log: logger.With("component", "bypass")},
		Metrics:  m,
		Logger:   logger,
	}
	if cfg.Browser.ScreenshotDir != "" {
		sessionOpts.Screenshots = browser.NewScreenshotDebugger(cfg.Browser.ScreenshotDir, logger)
	}

	r := runner.New(runner.Options{
		Registry:   registry,
		Launcher:   NewLauncher(cfg.Browser, logger),
		History:    store,
		Classifier: classifier,
		Session:    sessionOpts,
		Metrics:    m,
		Logger:     logger,
	})

	logger.Info("🔧 app ready",
		"tasks", len(tasks),
		"sites", registry.Sites(),
		"driver", cfg.Browser.Driver,
		"history", cfg.History.Backend,
		"report", cfg.Report.Format,
		"llm", cfg.UsesLLM())

	return &App{
		cfg:     cfg,
		log:     logger.With("component", "app"),
		metrics: m,
		tasks:   tasks,
		runner:  r,
		history: store,
		sink:    sink,
	}, nil
}

// NewRegistry registers every supported site adapter at its configured base URL.
func NewRegistry(sites config.SitesConfig, logger *slog.Logger) *scraper.Registry {
	return scraper.NewRegistry(
		linkedin.NewLinkedInScraper(sites.LinkedInURL, logger),
		indeed.NewIndeedScraper(sites.IndeedURL, logger),
		topcv.NewTopCVScraper(sites.TopCVURL, logger),
		itviec.NewITviecScraper(sites.ITviecURL, logger),
	)
}

// NewLauncher picks the page driver named by cfg.Driver.
func NewLauncher(cfg config.BrowserConfig, logger *slog.Logger) browser.Launcher {
	if cfg.Driver == "static" {
		return browser.NewStaticLauncher(&http.Client{Timeout: cfg.LoadTimeout}, cfg.UserAgent)
	}
	return browser.NewPlaywrightLauncher(browser.PlaywrightOptions{
		Headless:          cfg.Headless,
		UserDataDir:       cfg.UserDataDir,
		BinaryPath:        cfg.BinaryPath,
		CookiesPath:       cfg.CookiesPath,
		UserAgent:         cfg.UserAgent,
		NavigationTimeout: cfg.LoadTimeout,
	}, logger)
}

func newHistory(ctx context.Context, cfg config.HistoryConfig, logger *slog.Logger) (history.Store, error) {
	switch cfg.Backend {
	case "redis":
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return history.NewRedisStore(client, cfg.RedisPrefix), nil
	case "postgres":
		pool, err := database.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store, err := history.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	default:
		store, err := history.NewFileStore(cfg.Dir, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func newSink(cfg *config.Config, logger *slog.Logger) (reporter.Sink, error) {
	var sinks reporter.MultiSink
	switch cfg.Report.Format {
	case "json":
		sinks = append(sinks, reporter.NewJSONSink(cfg.Report.Dir, logger))
	case "dual":
		sinks = append(sinks, reporter.NewDualSink(cfg.Report.Dir, logger)...)
	case "pdf":
		sinks = append(sinks, reporter.NewCSVSink(cfg.Report.Dir, logger), reporter.NewPDFSink(cfg.Report.Dir, nil, logger))
	default:
		sinks = append(sinks, reporter.NewCSVSink(cfg.Report.Dir, logger))
	}
	if cfg.Telegram.Enabled {
		tg, err := reporter.NewTelegramSink(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Telegram.MaxPostings, nil, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, tg)
	}
	return sinks, nil
}

// Metrics exposes the collectors for the status server.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// RunOnce runs every task, then writes the report even when the run was cancelled part way.
func (a *App) RunOnce(ctx context.Context) (models.RunResult, error) {
	if !a.running.CompareAndSwap(false, true) {
		return models.RunResult{}, runner.ErrRunInProgress
	}
	defer a.running.Store(false)
	return a.run(ctx)
}

// Start runs in the background. It fails fast when a run is already going.
func (a *App) Start(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return runner.ErrRunInProgress
	}
	go func() {
		defer a.running.Store(false)
		if _, err := a.run(ctx); err != nil {
			a.log.Error("❌ background run failed", "error", err)
		}
	}()
	return nil
}

func (a *App) Running() bool {
	return a.running.Load()
}

// Latest returns the last finished run, if any.
func (a *App) Latest() (models.RunResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.latest == nil {
		return models.RunResult{}, false
	}
	return *a.latest, true
}

func (a *App) run(ctx context.Context) (models.RunResult, error) {
	res, runErr := a.runner.Run(ctx, a.tasks)

	writeErr := a.sink.Write(context.WithoutCancel(ctx), res)
	if writeErr != nil {
		a.log.Error("❌ report failed", "error", writeErr)
	} else {
		a.metrics.AddReported(res.Len())
	}

	a.mu.Lock()
	a.latest = &res
	a.mu.Unlock()

	if runErr == nil && writeErr == nil {
		a.metrics.MarkRunSuccess(res.FinishedAt)
	}

	if runErr != nil {
		return res, runErr
	}
	if writeErr != nil {
		return res, fmt.Errorf("write report: %w", writeErr)
	}
	return res, nil
}

// Close releases the history backend.
func (a *App) Close() error {
	if a.running.Load() {
		a.log.Warn("⚠️ closing while a run is in progress")
	}
	return a.history.Close()
}
