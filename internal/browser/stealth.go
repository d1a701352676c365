package browser

import (
	"context"
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDelay waits for a random duration in [min, max] or until ctx is done.
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	if max <= min {
		return Sleep(ctx, min)
	}
	return Sleep(ctx, min+time.Duration(rand.Int63n(int64(max-min))))
}

// HumanScroll scrolls the window down in steps, then back up a little.
func HumanScroll(ctx context.Context, page playwright.Page) error {
	for i := 0; i < 5; i++ {
		if _, err := page.Evaluate("window.scrollBy(0, window.innerHeight / 2)"); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 300*time.Millisecond, 900*time.Millisecond); err != nil {
			return err
		}
	}
	_, err := page.Evaluate("window.scrollBy(0, -200)")
	return err
}

// ScrollElement scrolls a scrollable container to its end in steps so lazy lists render.
func ScrollElement(ctx context.Context, el playwright.Locator) error {
	for i := 0; i < 8; i++ {
		if _, err := el.Evaluate("el => el.scrollBy(0, el.clientHeight)", nil); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 200*time.Millisecond, 500*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// MouseJiggle moves the mouse to a few random points inside the viewport.
func MouseJiggle(ctx context.Context, page playwright.Page) error {
	width, height := 800, 600
	if vp := page.ViewportSize(); vp != nil && vp.Width > 0 && vp.Height > 0 {
		width, height = vp.Width, vp.Height
	}
	for i := 0; i < 3; i++ {
		if err := page.Mouse().Move(float64(rand.Intn(width)), float64(rand.Intn(height))); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 100*time.Millisecond, 300*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}
