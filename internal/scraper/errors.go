package scraper

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownSite is returned for a site name with no registered adapter.
var ErrUnknownSite = errors.New("unsupported site")

// ErrNavigation means a page could not be loaded within the retry bound.
type ErrNavigation struct {
	URL      string
	Attempts int
	Err      error
}

func (e ErrNavigation) Error() string {
	return fmt.Sprintf("navigation to %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e ErrNavigation) Unwrap() error {
	return e.Err
}

// ErrBlocked means the anti-bot interstitial did not clear within the bypass bound.
type ErrBlocked struct {
	URL      string
	Attempts int
}

func (e ErrBlocked) Error() string {
	return fmt.Sprintf("site inaccessible: %s still blocked after %d bypass attempt(s)", e.URL, e.Attempts)
}

// ErrExtraction means an expected element was missing from one result unit or page.
type ErrExtraction struct {
	Site string
	Unit string
	Err  error
}

func (e ErrExtraction) Error() string {
	return fmt.Sprintf("%s: extract %s: %v", e.Site, e.Unit, e.Err)
}

func (e ErrExtraction) Unwrap() error {
	return e.Err
}

// ErrUnsupportedFilter is a configuration error: the site has no code for a filter value.
type ErrUnsupportedFilter struct {
	Site  string
	Field string
	Value string
}

func (e ErrUnsupportedFilter) Error() string {
	return fmt.Sprintf("%s does not support %s %q", e.Site, e.Field, e.Value)
}

// IsSessionFatal reports whether err ends the current task's scraping.
func IsSessionFatal(err error) bool {
	if err == nil {
		return false
	}
	var nav ErrNavigation
	var blocked ErrBlocked
	return errors.As(err, &nav) ||
		errors.As(err, &blocked) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var nav ErrNavigation
	if errors.As(err, &nav) {
		return "navigation"
	}
	var blocked ErrBlocked
	if errors.As(err, &blocked) {
		return "blocked"
	}
	var extraction ErrExtraction
	if errors.As(err, &extraction) {
		return "extraction"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "other"
}
