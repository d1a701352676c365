package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go-jobscout/internal/browser"
	"go-jobscout/internal/metrics"
)

// RetryPolicy bounds every blocking step of a session.
type RetryPolicy struct {
	LoadTimeout       time.Duration
	MaxLoadAttempts   int
	Backoff           time.Duration
	BackoffMax        time.Duration
	MaxBypassAttempts int
}

// DefaultRetryPolicy matches the config defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		LoadTimeout:       30 * time.Second,
		MaxLoadAttempts:   3,
		Backoff:           2 * time.Second,
		BackoffMax:        30 * time.Second,
		MaxBypassAttempts: 3,
	}
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	base := p.Backoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	delay := base * time.Duration(1<<(attempt-1))
	if max := p.BackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func (p RetryPolicy) maxLoadAttempts() int {
	if p.MaxLoadAttempts < 1 {
		return 1
	}
	return p.MaxLoadAttempts
}

// Navigator is the session's handle on its page. Adapters load and click through it.
type Navigator struct {
	page    browser.Page
	site    string
	policy  RetryPolicy
	bypass  browser.Bypasser
	shots   *browser.ScreenshotDebugger
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewNavigator wraps page. Sessions build one per launch; adapter tests build their own.
func NewNavigator(page browser.Page, site string, policy RetryPolicy, bypass browser.Bypasser, shots *browser.ScreenshotDebugger, m *metrics.Metrics, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		page:    page,
		site:    site,
		policy:  policy,
		bypass:  bypass,
		shots:   shots,
		metrics: m,
		log:     logger,
	}
}

// Page exposes the page for read-only DOM queries.
func (n *Navigator) Page() browser.Page {
	return n.page
}

// Load navigates to url and waits until ready, retrying with backoff up to the policy bound,
// then runs the anti-bot check.
func (n *Navigator) Load(ctx context.Context, url string) error {
	return n.retry(ctx, url, func() error {
		return n.page.Navigate(ctx, url)
	})
}

// Click clicks el and waits for the resulting page state under the same rules as Load.
func (n *Navigator) Click(ctx context.Context, el browser.Element) error {
	return n.retry(ctx, n.page.URL(), func() error {
		return el.Click(ctx)
	})
}

func (n *Navigator) retry(ctx context.Context, url string, act func() error) error {
	max := n.policy.maxLoadAttempts()
	for attempt := 1; ; attempt++ {
		err := act()
		if err == nil {
			err = n.page.WaitReady(ctx, n.policy.LoadTimeout)
		}
		if err == nil {
			return n.ensureClear(ctx, url)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, browser.ErrNotClickable) {
			return err
		}
		if attempt >= max {
			return ErrNavigation{URL: url, Attempts: attempt, Err: err}
		}

		delay := n.policy.backoff(attempt)
		n.metrics.IncNavigationRetry(n.site)
		n.log.Warn("⚠️ page load failed, retrying",
			"url", url, "attempt", attempt, "max_attempts", max, "backoff", delay, "error", err)
		if err := browser.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// ensureClear checks the blocked predicate and invokes the bypass until it clears or the
// attempt ceiling is hit.
func (n *Navigator) ensureClear(ctx context.Context, url string) error {
	for attempt := 0; ; attempt++ {
		title, err := n.page.Title()
		if err != nil {
			return ErrNavigation{URL: url, Attempts: 1, Err: err}
		}
		if !browser.Blocked(title) {
			if attempt > 0 {
				n.metrics.IncBypass(n.site, "cleared")
				n.log.Info("✅ anti-bot challenge passed", "url", url, "attempts", attempt)
			}
			return nil
		}
		if attempt >= n.policy.MaxBypassAttempts {
			n.metrics.IncBypass(n.site, "failed")
			n.log.Error("❌ anti-bot challenge did not clear", "url", url, "attempts", attempt, "title", title)
			_, _ = n.shots.Capture(n.page, n.site+"-blocked")
			return ErrBlocked{URL: url, Attempts: attempt}
		}

		n.metrics.IncBypass(n.site, "attempt")
		n.log.Warn("🛡️ anti-bot challenge detected", "url", url, "attempt", attempt+1, "title", title)
		if n.bypass == nil {
			continue
		}
		if err := n.bypass.Bypass(ctx, n.page); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			n.log.Warn("⚠️ bypass failed", "error", err)
		}
	}
}
