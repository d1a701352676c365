package browser

import (
	"context"
	"log/slog"
	"time"
)

// Bypasser tries to clear an anti-bot interstitial on page. It does not decide success;
// the caller re-checks the page title afterwards.
type Bypasser interface {
	Bypass(ctx context.Context, page Page) error
}

// HumanBypasser moves the mouse, clicks a challenge checkbox when the page exposes one,
// then waits for the interstitial to resolve.
type HumanBypasser struct {
	Wait time.Duration
	Log  *slog.Logger
}

func (b HumanBypasser) Bypass(ctx context.Context, page Page) error {
	logger := b.Log
	if logger == nil {
		logger = slog.Default()
	}
	if h, ok := page.(Humanizer); ok {
		if err := h.Jiggle(ctx); err != nil {
			logger.Debug("mouse jiggle failed", "error", err)
		}
	}
	if s, ok := page.(ChallengeSolver); ok {
		solved, err := s.SolveChallenge(ctx)
		if err != nil {
			logger.Warn("⚠️ challenge click failed", "error", err)
		} else if solved {
			logger.Info("🖱️ clicked challenge checkbox")
		}
	}
	logger.Info("🛡️ waiting for challenge to clear", "wait", b.Wait)
	return Sleep(ctx, b.Wait)
}
