package browser

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ScreenshotDebugger saves full-page captures of pages that went wrong.
type ScreenshotDebugger struct {
	outputDir string
	log       *slog.Logger
}

// NewScreenshotDebugger returns nil when dir is empty; a nil debugger captures nothing.
func NewScreenshotDebugger(dir string, logger *slog.Logger) *ScreenshotDebugger {
	if dir == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreenshotDebugger{outputDir: dir, log: logger}
}

// Capture saves page as <dir>/<name>_<timestamp>.png if the driver supports screenshots.
func (s *ScreenshotDebugger) Capture(page Page, name string) (string, error) {
	if s == nil {
		return "", nil
	}
	shooter, ok := page.(Screenshotter)
	if !ok {
		return "", nil
	}
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, time.Now().Format("2006-01-02_15-04-05")))
	if err := shooter.Screenshot(path); err != nil {
		s.log.Warn("⚠️ failed to capture screenshot", "error", err)
		return "", err
	}
	s.log.Info("📸 screenshot saved", "path", path)
	return path, nil
}
