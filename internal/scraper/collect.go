package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go-jobscout/internal/filter"
	"go-jobscout/internal/metrics"
	"go-jobscout/internal/models"
)

// ExtractPosting reads unit u through the adapter and applies the gating policy.
// The posting is only usable when the decision is Accepted.
func ExtractPosting(ctx context.Context, a Adapter, nav *Navigator, st *State, u Unit) (models.Posting, filter.Decision, error) {
	p, err := a.Extract(ctx, nav, st, u)
	if err != nil {
		return models.Posting{}, filter.Decision{}, err
	}
	if p.ID == "" {
		return models.Posting{}, filter.Decision{}, ErrExtraction{Site: a.Site(), Unit: u.ID, Err: errors.New("no posting id")}
	}

	q := st.Query()
	p.Site = a.Site()
	p.SearchTitle = q.JobTitle

	d := filter.Evaluate(q, p.Company, p.Title)
	if d.Accepted && !q.FetchDescription {
		p.Description = ""
	}
	return p, d, nil
}

// CollectResultsForQuery drives pagination for st's query until the cap is reached or
// pages run out. Unit-level failures are logged and skipped; only session-fatal errors
// are returned.
func CollectResultsForQuery(ctx context.Context, a Adapter, nav *Navigator, st *State, maxPages int, m *metrics.Metrics, logger *slog.Logger) error {
	if st.Satisfied() {
		logger.Warn("⚠️ num_jobs below one, nothing to collect", "num_jobs", st.Query().NumJobs)
		return nil
	}
	url, err := SearchURL(a, st.Query())
	if err != nil {
		return fmt.Errorf("build search url: %w", err)
	}
	logger.Info("🌐 loading search page", "url", url)
	if err := nav.Load(ctx, url); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		units, err := a.Units(ctx, nav, st)
		if err != nil {
			if IsSessionFatal(err) {
				return err
			}
			m.IncError(a.Site(), errorTypeLabel(err))
			logger.Warn("⚠️ could not read results page", "page", st.PagesVisited()+1, "error", err)
			units = nil
		}
		st.visitPage()
		logger.Info("📦 results page", "page", st.PagesVisited(), "units", len(units))

		for _, u := range units {
			if st.Satisfied() {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := handleUnit(ctx, a, nav, st, u, m, logger); err != nil {
				return err
			}
		}

		if st.Satisfied() {
			logger.Info("🎯 query satisfied", "accepted", st.JobsAccepted(), "pages", st.PagesVisited())
			return nil
		}
		if maxPages > 0 && st.PagesVisited() >= maxPages {
			logger.Info("⏹️ page limit reached", "pages", st.PagesVisited(), "accepted", st.JobsAccepted())
			return nil
		}

		more, err := a.NextPage(ctx, nav, st)
		if err != nil {
			if IsSessionFatal(err) {
				return err
			}
			logger.Warn("⚠️ pagination failed, treating results as exhausted", "error", err)
			return nil
		}
		if !more {
			logger.Info("🏁 no more pages", "pages", st.PagesVisited(), "accepted", st.JobsAccepted())
			return nil
		}
	}
}

// handleUnit returns an error only when it is session-fatal.
func handleUnit(ctx context.Context, a Adapter, nav *Navigator, st *State, u Unit, m *metrics.Metrics, logger *slog.Logger) error {
	site := a.Site()
	p, d, err := ExtractPosting(ctx, a, nav, st, u)
	if err != nil {
		if IsSessionFatal(err) {
			return err
		}
		m.IncError(site, errorTypeLabel(err))
		logger.Warn("⚠️ skipped unit", "unit", u.ID, "error", err)
		return nil
	}
	if !d.Accepted {
		m.IncSkipped(site, string(d.Reason))
		logger.Info("🚫 skip posting",
			"reason", string(d.Reason), "keyword", d.Keyword, "id", p.ID, "company", p.Company, "title", p.Title)
		return nil
	}
	if !st.Accept(p) {
		logger.Debug("🔁 already accepted for this query", "id", p.ID)
		return nil
	}
	m.IncScraped(site)
	logger.Info("✅ accepted", "id", p.ID, "company", p.Company, "title", p.Title,
		"accepted", st.JobsAccepted(), "num_jobs", st.Query().NumJobs)
	return nil
}
