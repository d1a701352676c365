package reporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"go-jobscout/internal/models"
)

var csvHeader = []string{"search title", "site", "posting id", "title", "company", "url", "location", "llm comment", "validated"}

// CSVSink writes the postings table to <dir>/<YYYY-MM-DD_HH-MM>.csv in RunResult order.
// A second run in the same minute writes <YYYY-MM-DD_HH-MM>_2.csv.
type CSVSink struct {
	dir string
	log *slog.Logger
}

func NewCSVSink(dir string, logger *slog.Logger) *CSVSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSink{dir: dir, log: logger.With("component", "reporter", "format", "csv")}
}

func (s *CSVSink) Write(ctx context.Context, res models.RunResult) error {
	if res.Len() == 0 {
		s.log.Info("📭 nothing to report")
		return nil
	}
	f, path, err := createReport(s.dir, res, "csv")
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range res.Postings {
		record := []string{
			p.SearchTitle,
			p.Site,
			p.ID,
			p.Title,
			p.Company,
			p.URL,
			p.Location,
			commentOrNA(p.Comment),
			strconv.FormatBool(p.Validated),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync csv file: %w", err)
	}
	s.log.Info("📄 report written", "path", path, "rows", res.Len())
	return nil
}
