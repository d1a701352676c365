// Package runner is the run orchestrator: it drives each task through scrape,
// history filter, classification and history append, then merges the results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-jobscout/internal/browser"
	"go-jobscout/internal/history"
	"go-jobscout/internal/metrics"
	"go-jobscout/internal/models"
	"go-jobscout/internal/scraper"

	"github.com/google/uuid"
)

// Classifier labels postings for a profile, dropping those it cannot label.
type Classifier interface {
	Filter(ctx context.Context, profile models.Profile, postings []models.Posting) ([]models.Posting, error)
}

// Options are the collaborators of a Runner. Registry, Launcher and History are required.
type Options struct {
	Registry   *scraper.Registry
	Launcher   browser.Launcher
	History    history.Store
	Classifier Classifier
	Session    scraper.SessionOptions
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

type Runner struct {
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Session.Logger == nil {
		opts.Session.Logger = logger
	}
	if opts.Session.Metrics == nil {
		opts.Session.Metrics = opts.Metrics
	}
	return &Runner{opts: opts, log: logger.With("component", "runner"), now: time.Now}
}

// Run executes tasks in order. A task that fails contributes nothing and the run goes on.
// On cancellation the result holds every task finished so far and the error is ctx.Err().
func (r *Runner) Run(ctx context.Context, tasks []models.Task) (models.RunResult, error) {
	res := models.RunResult{RunID: uuid.NewString(), StartedAt: r.now()}
	log := r.log.With("run_id", res.RunID)
	log.Info("🚀 run started", "tasks", len(tasks))

	var parts [][]models.Posting
	var runErr error
	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		tlog := log.With("site", task.Site, "task", i+1)
		postings, summary, err := r.runTask(ctx, task, tlog)
		res.Tasks = append(res.Tasks, summary)
		parts = append(parts, postings)
		if err != nil && ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
	}

	res.Postings = Merge(parts...)
	res.FinishedAt = r.now()
	if runErr != nil {
		log.Warn("⏹️ run cancelled", "postings", len(res.Postings), "error", runErr)
		return res, runErr
	}
	log.Info("🏁 run finished", "postings", len(res.Postings), "duration", res.FinishedAt.Sub(res.StartedAt))
	return res, nil
}

func (r *Runner) runTask(ctx context.Context, task models.Task, log *slog.Logger) ([]models.Posting, models.TaskSummary, error) {
	start := r.now()
	summary := models.TaskSummary{Site: task.Site}
	defer func() {
		summary.Duration = r.now().Sub(start)
		r.opts.Metrics.ObserveTask(task.Site, summary.Duration)
	}()
	fail := func(err error) ([]models.Posting, models.TaskSummary, error) {
		summary.Error = err.Error()
		return nil, summary, err
	}

	adapter, ok := r.opts.Registry.Get(task.Site)
	if !ok {
		err := fmt.Errorf("%w: %q", scraper.ErrUnknownSite, task.Site)
		log.Error("❌ skipping task", "error", err)
		return fail(err)
	}
	site := adapter.Site()
	if task.LLMFilter && r.opts.Classifier == nil {
		err := errors.New("llm_filter is set but no classifier is configured")
		log.Error("❌ skipping task", "error", err)
		return fail(err)
	}

	seen, err := r.opts.History.Load(ctx, site)
	if err != nil {
		log.Error("❌ could not load history, skipping task", "error", err)
		return fail(fmt.Errorf("load history: %w", err))
	}
	log.Info("📚 history loaded", "known_ids", len(seen))

	session := scraper.NewSession(r.opts.Launcher, adapter, r.opts.Session)
	scraped, scrapeErr := session.Run(ctx, task.Queries)
	summary.Scraped = len(scraped)
	if scrapeErr != nil {
		summary.Error = scrapeErr.Error()
		if ctx.Err() != nil {
			log.Warn("⏹️ scrape cancelled", "kept", len(scraped))
			return nil, summary, ctx.Err()
		}
		log.Error("❌ scrape stopped early, keeping finished queries", "kept", len(scraped), "error", scrapeErr)
	}

	fresh := make([]models.Posting, 0, len(scraped))
	for _, p := range scraped {
		if seen.Has(p.ID) {
			summary.AlreadySeen++
			continue
		}
		fresh = append(fresh, p)
	}
	log.Info("🧹 history filter", "scraped", len(scraped), "already_seen", summary.AlreadySeen, "fresh", len(fresh))
	if len(fresh) == 0 {
		return nil, summary, nil
	}

	var final []models.Posting
	var classifyErr error
	if task.LLMFilter {
		final, classifyErr = r.opts.Classifier.Filter(ctx, task.Profile, fresh)
		summary.Dropped = len(fresh) - len(final)
		if classifyErr != nil && ctx.Err() == nil {
			log.Error("❌ classification failed", "error", classifyErr)
			summary.Error = classifyErr.Error()
			return nil, summary, classifyErr
		}
	} else {
		final = make([]models.Posting, len(fresh))
		for i, p := range fresh {
			p.Validated = true
			p.Comment = models.CommentNone
			final[i] = p
		}
	}
	summary.Reported = len(final)

	if len(final) > 0 {
		ids := make([]string, len(final))
		for i, p := range final {
			ids[i] = p.ID
		}
		// history must match what is reported, even when the run was cancelled mid-task
		if err := r.opts.History.Append(context.WithoutCancel(ctx), site, ids); err != nil {
			log.Error("❌ history append failed", "error", err, "ids", len(ids))
			summary.Error = fmt.Sprintf("append history: %v", err)
		} else {
			r.opts.Metrics.AddHistory(site, len(ids))
		}
	}
	log.Info("✅ task finished", "reported", len(final), "dropped", summary.Dropped)
	if classifyErr != nil {
		return final, summary, classifyErr
	}
	return final, summary, nil
}

// Merge unions per-task results, drops repeats of (site, ID) keeping the first, and sorts
// by site, search title and company.
func Merge(parts ...[]models.Posting) []models.Posting {
	seen := map[string]struct{}{}
	var out []models.Posting
	for _, part := range parts {
		for _, p := range part {
			k := p.Key()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, p)
		}
	}
	models.SortPostings(out)
	return out
}

// ErrRunInProgress is returned when a run is requested while another one is still going.
var ErrRunInProgress = errors.New("run already in progress")
