package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-jobscout/internal/metrics"
	"go-jobscout/internal/models"

	"golang.org/x/time/rate"
)

// Outcome is the parsed classifier answer.
type Outcome string

const (
	OutcomeGood        Outcome = "good"
	OutcomeModerate    Outcome = "moderate"
	OutcomePoor        Outcome = "poor"
	OutcomeUnparseable Outcome = "unparseable"
)

// ParseOutcome lower-cases and trims the answer and matches it against the three labels.
// A single trailing full stop is tolerated.
func ParseOutcome(answer string) Outcome {
	s := strings.ToLower(strings.TrimSpace(answer))
	s = strings.TrimSpace(strings.TrimSuffix(s, "."))
	switch Outcome(s) {
	case OutcomeGood, OutcomeModerate, OutcomePoor:
		return Outcome(s)
	default:
		return OutcomeUnparseable
	}
}

// Apply sets Validated and Comment for a recognised outcome. It reports false for
// Unparseable, in which case p is returned unchanged.
func (o Outcome) Apply(p models.Posting) (models.Posting, bool) {
	switch o {
	case OutcomeGood:
		p.Validated, p.Comment = true, models.CommentGood
	case OutcomeModerate:
		p.Validated, p.Comment = true, models.CommentModerate
	case OutcomePoor:
		p.Validated, p.Comment = false, models.CommentPoor
	default:
		return p, false
	}
	return p, true
}

// GateOptions tunes the classification gate.
type GateOptions struct {
	// Cooldown is the minimum spacing between two LLM calls. Zero disables it.
	Cooldown time.Duration
	// Timeout bounds one LLM call. Zero leaves it to the client.
	Timeout time.Duration
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Gate classifies postings one at a time against a candidate profile.
type Gate struct {
	llm     LLM
	limiter *rate.Limiter
	timeout time.Duration
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewGate(llm LLM, opts GateOptions) *Gate {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if opts.Cooldown > 0 {
		limit = rate.Every(opts.Cooldown)
	}
	return &Gate{
		llm:     llm,
		limiter: rate.NewLimiter(limit, 1),
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		log:     logger.With("component", "gate"),
	}
}

// Classify asks the LLM about p. A call error yields OutcomeUnparseable together with
// the error; only a cancelled ctx should stop the caller.
func (g *Gate) Classify(ctx context.Context, profile models.Profile, p models.Posting) (Outcome, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return OutcomeUnparseable, ctxErr
		}
		return OutcomeUnparseable, fmt.Errorf("cooldown: %w", err)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	answer, err := g.llm.Invoke(callCtx, SystemPrompt, BuildUserPrompt(profile, p))
	if err != nil {
		return OutcomeUnparseable, err
	}
	out := ParseOutcome(answer)
	if out == OutcomeUnparseable {
		g.log.Warn("⚠️ unparseable classifier answer", "id", p.ID, "answer", truncate(answer, 120))
	}
	return out, nil
}

// Filter classifies postings in order and returns those with a recognised label.
// Failed and unparseable classifications are dropped. On cancellation it returns
// what was classified so far with ctx.Err().
func (g *Gate) Filter(ctx context.Context, profile models.Profile, postings []models.Posting) ([]models.Posting, error) {
	out := make([]models.Posting, 0, len(postings))
	for i, p := range postings {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		outcome, err := g.Classify(ctx, profile, p)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			g.metrics.IncClassification("error")
			g.log.Error("❌ classification failed, dropping posting",
				"id", p.ID, "title", p.Title, "company", p.Company, "url", p.URL, "error", err)
			continue
		}
		g.metrics.IncClassification(string(outcome))

		labelled, ok := outcome.Apply(p)
		if !ok {
			g.log.Info("🗑️ dropping unclassified posting", "id", p.ID, "title", p.Title, "company", p.Company, "url", p.URL)
			continue
		}
		g.log.Debug("🤖 classified", "id", p.ID, "outcome", outcome, "progress", i+1, "of", len(postings))
		out = append(out, labelled)
	}
	return out, nil
}
