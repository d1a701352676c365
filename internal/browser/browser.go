// Package browser is the driver capability the scraping session runs on:
// navigate, wait, query the DOM, click, scroll, read the title, quit.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoElement is returned when none of the requested selectors match.
	ErrNoElement = errors.New("element not found")
	// ErrLoadTimeout wraps driver timeouts while loading a page.
	ErrLoadTimeout = errors.New("page load timeout")
	// ErrNotClickable is returned by drivers that cannot act on an element.
	ErrNotClickable = errors.New("element not clickable")
)

// Querier is anything that can look up elements by CSS selector.
type Querier interface {
	Query(selector string) ([]Element, error)
}

// Page is one live browser tab. A Page is owned by exactly one session.
type Page interface {
	Querier
	Navigate(ctx context.Context, url string) error
	WaitReady(ctx context.Context, timeout time.Duration) error
	Title() (string, error)
	URL() string
	// Scroll scrolls the element matched by selector, or the window when selector is empty.
	Scroll(ctx context.Context, selector string) error
	// Close quits the page and whatever browser process backs it.
	Close() error
}

// Element is one DOM node.
type Element interface {
	Querier
	Text() (string, error)
	// Attr returns "" without error when the attribute is absent.
	Attr(name string) (string, error)
	Click(ctx context.Context) error
}

// Launcher acquires a fresh browser session.
type Launcher interface {
	Launch(ctx context.Context) (Page, error)
}

// ChallengeSolver is implemented by pages that can act on an interstitial challenge.
// solved reports whether anything was clicked.
type ChallengeSolver interface {
	SolveChallenge(ctx context.Context) (solved bool, err error)
}

// Screenshotter is implemented by pages that can capture themselves.
type Screenshotter interface {
	Screenshot(path string) error
}

// Humanizer is implemented by pages that can fake user input.
type Humanizer interface {
	Jiggle(ctx context.Context) error
}

var blockedTitles = []string{
	"just a moment",
	"請稍候",
	"attention required",
	"cloudflare",
}

// Blocked reports whether a page title belongs to an anti-bot interstitial.
func Blocked(title string) bool {
	t := strings.ToLower(title)
	for _, b := range blockedTitles {
		if strings.Contains(t, b) {
			return true
		}
	}
	return false
}

// First returns the first element matching any selector, trying them in order.
func First(q Querier, selectors ...string) (Element, error) {
	for _, sel := range selectors {
		els, err := q.Query(sel)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", sel, err)
		}
		if len(els) > 0 {
			return els[0], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoElement, strings.Join(selectors, ", "))
}

// TextOf returns the trimmed text of First(q, selectors...).
func TextOf(q Querier, selectors ...string) (string, error) {
	el, err := First(q, selectors...)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// AttrOf returns attribute name of First(q, selectors...).
func AttrOf(q Querier, name string, selectors ...string) (string, error) {
	el, err := First(q, selectors...)
	if err != nil {
		return "", err
	}
	v, err := el.Attr(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
