package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go-jobscout/internal/models"
)

// JSONSink writes one posting per line to <dir>/<YYYY-MM-DD_HH-MM>.jsonl.
type JSONSink struct {
	dir string
	log *slog.Logger
}

func NewJSONSink(dir string, logger *slog.Logger) *JSONSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONSink{dir: dir, log: logger.With("component", "reporter", "format", "jsonl")}
}

func (s *JSONSink) Write(ctx context.Context, res models.RunResult) error {
	if res.Len() == 0 {
		return nil
	}
	f, path, err := createReport(s.dir, res, "jsonl")
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	enc := json.NewEncoder(buf)
	for _, p := range res.Postings {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	s.log.Info("📄 report written", "path", path, "rows", res.Len())
	return nil
}

// NewDualSink writes both the CSV table and the JSONL stream.
func NewDualSink(dir string, logger *slog.Logger) MultiSink {
	return MultiSink{NewCSVSink(dir, logger), NewJSONSink(dir, logger)}
}
