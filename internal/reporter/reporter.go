// Package reporter persists and announces the final RunResult.
package reporter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go-jobscout/internal/models"
)

// Sink consumes one run's result.
type Sink interface {
	Write(ctx context.Context, res models.RunResult) error
}

// MultiSink writes to every sink in order and joins their errors. A failing sink does not
// stop the ones after it.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, res models.RunResult) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const maxReportSuffix = 1000

// createReport creates <dir>/<YYYY-MM-DD_HH-MM>.<ext> for the run's start time. An existing
// report is never overwritten: runs that start in the same minute get _2, _3, ... suffixes.
func createReport(dir string, res models.RunResult, ext string) (*os.File, string, error) {
	if err := ensureDir(dir); err != nil {
		return nil, "", err
	}
	t := res.StartedAt
	if t.IsZero() {
		t = time.Now()
	}
	stamp := t.Format("2006-01-02_15-04")
	for n := 1; n <= maxReportSuffix; n++ {
		name := stamp + "." + ext
		if n > 1 {
			name = fmt.Sprintf("%s_%d.%s", stamp, n, ext)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %s report: %w", ext, err)
		}
	}
	return nil, "", fmt.Errorf("create %s report: %d files already exist for %s", ext, maxReportSuffix, stamp)
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

func commentOrNA(c models.Comment) string {
	if c == models.CommentNone {
		return "n/a"
	}
	return string(c)
}
