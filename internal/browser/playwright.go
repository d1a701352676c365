package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightOptions configures a Chromium session.
type PlaywrightOptions struct {
	Headless          bool
	UserDataDir       string // persistent profile; empty means a throwaway context
	BinaryPath        string
	CookiesPath       string
	UserAgent         string
	NavigationTimeout time.Duration
}

// PlaywrightLauncher starts one Chromium per Launch call.
type PlaywrightLauncher struct {
	opts PlaywrightOptions
	log  *slog.Logger
}

func NewPlaywrightLauncher(opts PlaywrightOptions, logger *slog.Logger) *PlaywrightLauncher {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaywrightLauncher{opts: opts, log: logger.With("component", "browser")}
}

var stealthArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--no-sandbox",
}

// Launch starts the driver, the browser and one page. Everything is torn down by Page.Close.
func (l *PlaywrightLauncher) Launch(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	p := &pwPage{pw: pw}

	if l.opts.UserDataDir != "" {
		opts := playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(l.opts.Headless),
			Args:     stealthArgs,
		}
		if l.opts.BinaryPath != "" {
			opts.ExecutablePath = playwright.String(l.opts.BinaryPath)
		}
		if l.opts.UserAgent != "" {
			opts.UserAgent = playwright.String(l.opts.UserAgent)
		}
		p.bctx, err = pw.Chromium.LaunchPersistentContext(l.opts.UserDataDir, opts)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("could not launch persistent context: %w", err)
		}
	} else {
		opts := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(l.opts.Headless),
			Args:     stealthArgs,
		}
		if l.opts.BinaryPath != "" {
			opts.ExecutablePath = playwright.String(l.opts.BinaryPath)
		}
		p.browser, err = pw.Chromium.Launch(opts)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("could not launch chromium: %w", err)
		}
		ctxOpts := playwright.BrowserNewContextOptions{}
		if l.opts.UserAgent != "" {
			ctxOpts.UserAgent = playwright.String(l.opts.UserAgent)
		}
		p.bctx, err = p.browser.NewContext(ctxOpts)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("could not create browser context: %w", err)
		}
	}

	cookies, err := LoadCookies(l.opts.CookiesPath)
	if err != nil {
		l.log.Warn("⚠️ could not load cookies, continuing without them", "path", l.opts.CookiesPath, "error", err)
	} else if len(cookies) > 0 {
		pwCookies := make([]playwright.OptionalCookie, len(cookies))
		for i, c := range cookies {
			pwCookies[i] = c.ToPlaywright()
		}
		if err := p.bctx.AddCookies(pwCookies); err != nil {
			l.log.Warn("⚠️ could not add cookies", "error", err)
		} else {
			l.log.Info("🍪 cookies loaded", "count", len(cookies))
		}
	}

	if pages := p.bctx.Pages(); len(pages) > 0 {
		p.page = pages[0]
	} else if p.page, err = p.bctx.NewPage(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	if l.opts.NavigationTimeout > 0 {
		p.page.SetDefaultNavigationTimeout(float64(l.opts.NavigationTimeout.Milliseconds()))
	}

	l.log.Info("✅ browser initialized", "headless", l.opts.Headless, "persistent", l.opts.UserDataDir != "")
	return p, nil
}

type pwPage struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
}

func wrapTimeout(err error) error {
	if err != nil && errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrLoadTimeout, err)
	}
	return err
}

func (p *pwPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return wrapTimeout(err)
}

func (p *pwPage) WaitReady(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrapTimeout(p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateLoad,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}))
}

func (p *pwPage) Title() (string, error) {
	return p.page.Title()
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) Query(selector string) ([]Element, error) {
	return wrapLocators(p.page.Locator(selector).All())
}

func (p *pwPage) Scroll(ctx context.Context, selector string) error {
	if selector == "" {
		return HumanScroll(ctx, p.page)
	}
	el := p.page.Locator(selector).First()
	if n, _ := el.Count(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	return ScrollElement(ctx, el)
}

func (p *pwPage) Jiggle(ctx context.Context) error {
	return MouseJiggle(ctx, p.page)
}

func (p *pwPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

// SolveChallenge looks for a Turnstile frame and clicks its checkbox.
func (p *pwPage) SolveChallenge(ctx context.Context) (bool, error) {
	var frame playwright.Frame
	for _, f := range p.page.Frames() {
		if strings.Contains(f.URL(), "challenges.cloudflare.com") || strings.Contains(f.Name(), "turnstile") {
			frame = f
			break
		}
	}
	if frame == nil {
		return false, nil
	}
	checkbox := frame.Locator(`input[type="checkbox"], .ctp-checkbox-label, #challenge-stage`).First()
	if visible, _ := checkbox.IsVisible(); !visible {
		return false, nil
	}
	if err := MouseJiggle(ctx, p.page); err != nil {
		return false, err
	}
	if err := checkbox.Click(); err != nil {
		return false, fmt.Errorf("click turnstile checkbox: %w", err)
	}
	return true, nil
}

// Close releases page, context, browser and driver; it is safe on a partly launched session.
func (p *pwPage) Close() error {
	var errs []error
	if p.bctx != nil {
		if err := p.bctx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if p.browser != nil {
		if err := p.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if p.pw != nil {
		if err := p.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

const elementTimeoutMs = 3000

type pwElement struct {
	loc playwright.Locator
}

func wrapLocators(locs []playwright.Locator, err error) ([]Element, error) {
	if err != nil {
		return nil, err
	}
	els := make([]Element, len(locs))
	for i, l := range locs {
		els[i] = &pwElement{loc: l}
	}
	return els, nil
}

func (e *pwElement) Query(selector string) ([]Element, error) {
	return wrapLocators(e.loc.Locator(selector).All())
}

func (e *pwElement) Text() (string, error) {
	return e.loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(elementTimeoutMs),
	})
}

func (e *pwElement) Attr(name string) (string, error) {
	return e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(elementTimeoutMs),
	})
}

func (e *pwElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.loc.ScrollIntoViewIfNeeded(); err != nil {
		return err
	}
	return e.loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(elementTimeoutMs),
	})
}
