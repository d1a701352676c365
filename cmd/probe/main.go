// Command probe loads one search page for a site and prints what the adapter sees on it.
// Use it to check cookies, selectors and block pages before a full run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-jobscout/internal/app"
	"go-jobscout/internal/browser"
	"go-jobscout/internal/config"
	"go-jobscout/internal/models"
	"go-jobscout/internal/scraper"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML run configuration")
	site := flag.String("site", "linkedin", "site to probe")
	title := flag.String("title", "golang developer", "job title to search for")
	location := flag.String("location", "", "location to search in")
	shot := flag.String("screenshot", "", "directory to save a screenshot of the results page in")
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

	adapter, ok := app.NewRegistry(cfg.Sites, logger).Get(*site)
	if !ok {
		logger.Error("❌ unknown site", "site", *site)
		os.Exit(2)
	}
	q := models.SearchQuery{JobTitle: *title, Location: *location}
	searchURL, err := scraper.SearchURL(adapter, q)
	if err != nil {
		logger.Error("❌ cannot build search URL", "error", err)
		os.Exit(2)
	}
	fmt.Printf("🔍 Search URL: %s\n", searchURL)

	if cfg.Browser.Driver == "playwright" {
		cookies, err := browser.LoadCookies(cfg.Browser.CookiesPath)
		if err != nil {
			logger.Warn("⚠️ could not load cookies", "path", cfg.Browser.CookiesPath, "error", err)
		}
		fmt.Printf("🍪 Loaded %d cookies from %q\n", len(cookies), cfg.Browser.CookiesPath)
	}

	page, err := app.NewLauncher(cfg.Browser, logger).Launch(ctx)
	if err != nil {
		logger.Error("❌ failed to launch browser", "driver", cfg.Browser.Driver, "error", err)
		os.Exit(1)
	}
	defer page.Close()
	fmt.Printf("✅ %s driver started\n", cfg.Browser.Driver)

	var shots *browser.ScreenshotDebugger
	if *shot != "" {
		shots = browser.NewScreenshotDebugger(*shot, logger)
	}
	policy := scraper.RetryPolicy{
		LoadTimeout:       cfg.Browser.LoadTimeout,
		MaxLoadAttempts:   cfg.Browser.MaxLoadAttempts,
		Backoff:           cfg.Browser.RetryBackoff,
		BackoffMax:        cfg.Browser.RetryBackoffMax,
		MaxBypassAttempts: cfg.Browser.MaxBypassAttempts,
	}
	bypass := browser.HumanBypasser{Wait: cfg.Browser.BypassWait, Log: logger.With("component", "bypass")}
	nav := scraper.NewNavigator(page, adapter.Site(), policy, bypass, shots, nil, logger)

	loadErr := nav.Load(ctx, searchURL)
	pageTitle, _ := page.Title()
	fmt.Printf("📄 Page title: %s\n", pageTitle)
	fmt.Printf("🚧 Blocked: %t\n", browser.Blocked(pageTitle))
	if shots != nil {
		if path, err := shots.Capture(page, "probe-"+adapter.Site()); err == nil && path != "" {
			fmt.Printf("📸 Screenshot saved: %s\n", path)
		}
	}
	if loadErr != nil {
		logger.Error("❌ failed to load results page", "error", loadErr)
		os.Exit(1)
	}

	var st scraper.State
	st.Reset(q)
	units, err := adapter.Units(ctx, nav, &st)
	if err != nil {
		logger.Error("❌ failed to read result units", "error", err)
		os.Exit(1)
	}
	fmt.Printf("🧾 Units on first page: %d\n", len(units))
	for i, u := range units {
		if i == 5 {
			fmt.Printf("   ... and %d more\n", len(units)-i)
			break
		}
		fmt.Printf("   - %s\n", u.ID)
	}
	if st.NextURL != "" {
		fmt.Printf("➡️ Next page: %s\n", st.NextURL)
	}
	fmt.Println("✨ Probe complete!")
}
