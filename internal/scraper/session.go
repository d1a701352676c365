package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"go-jobscout/internal/browser"
	"go-jobscout/internal/metrics"
	"go-jobscout/internal/models"
)

// SessionOptions carries the knobs shared by every session of a run.
type SessionOptions struct {
	Policy      RetryPolicy
	MaxPages    int
	Bypasser    browser.Bypasser
	Screenshots *browser.ScreenshotDebugger
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Session owns one browser for one adapter across a batch of queries.
type Session struct {
	launcher browser.Launcher
	adapter  Adapter
	opts     SessionOptions
	log      *slog.Logger
}

func NewSession(launcher browser.Launcher, adapter Adapter, opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		launcher: launcher,
		adapter:  adapter,
		opts:     opts,
		log:      logger.With("component", "session", "site", adapter.Site()),
	}
}

// Run executes queries in order on one browser and returns their postings, deduplicated
// by ID. The browser is released on every exit path.
//
// A session-fatal error stops the batch: the postings of queries that finished before it
// are returned along with the error, and the failing query contributes nothing.
func (s *Session) Run(ctx context.Context, queries []models.SearchQuery) ([]models.Posting, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	page, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.log.Warn("⚠️ browser close failed", "error", err)
		}
	}()

	nav := NewNavigator(page, s.adapter.Site(), s.opts.Policy, s.opts.Bypasser, s.opts.Screenshots, s.opts.Metrics, s.log)

	var (
		st  State
		all []models.Posting
	)
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return dedupeByID(all), err
		}
		st.Reset(q)
		qlog := s.log.With("query", q.JobTitle, "location", q.Location)
		qlog.Info("🔍 searching", "index", i+1, "of", len(queries), "num_jobs", q.NumJobs)

		if err := CollectResultsForQuery(ctx, s.adapter, nav, &st, s.opts.MaxPages, s.opts.Metrics, qlog); err != nil {
			s.opts.Metrics.IncError(s.adapter.Site(), errorTypeLabel(err))
			qlog.Error("❌ query abandoned", "error", err, "discarded", st.JobsAccepted())
			return dedupeByID(all), fmt.Errorf("query %q: %w", q.JobTitle, err)
		}
		qlog.Info("✅ query finished", "accepted", st.JobsAccepted(), "pages", st.PagesVisited())
		all = append(all, st.Postings()...)
	}
	return dedupeByID(all), nil
}

// dedupeByID keeps the position of the first occurrence and the content of the last.
func dedupeByID(postings []models.Posting) []models.Posting {
	if len(postings) == 0 {
		return postings
	}
	index := make(map[string]int, len(postings))
	out := make([]models.Posting, 0, len(postings))
	for _, p := range postings {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}
