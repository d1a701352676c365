package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go-jobscout/internal/models"

	"github.com/robfig/cron/v3"
)

// Validate checks every section and returns all problems at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	b := c.Browser
	switch b.Driver {
	case "playwright", "static":
	default:
		add("browser.driver must be playwright or static, got %q", b.Driver)
	}
	if b.LoadTimeout <= 0 {
		add("browser.load_timeout must be positive")
	}
	if b.MaxLoadAttempts < 1 {
		add("browser.max_load_attempts must be at least 1")
	}
	if b.RetryBackoff < 0 || b.RetryBackoffMax < 0 {
		add("browser retry backoff cannot be negative")
	}
	if b.RetryBackoffMax > 0 && b.RetryBackoff > b.RetryBackoffMax {
		add("browser.retry_backoff (%s) cannot exceed browser.retry_backoff_max (%s)", b.RetryBackoff, b.RetryBackoffMax)
	}
	if b.MaxBypassAttempts < 0 {
		add("browser.max_bypass_attempts cannot be negative")
	}
	if b.BypassWait < 0 {
		add("browser.bypass_wait cannot be negative")
	}
	if b.MaxPages < 0 {
		add("browser.max_pages cannot be negative")
	}

	if c.UsesLLM() {
		l := c.LLM
		switch l.Provider {
		case "openai", "groq", "gemini":
			if l.APIKey == "" {
				add("llm.api_key (or LLM_API_KEY) is required for provider %s", l.Provider)
			}
		case "ollama":
		default:
			add("llm.provider must be openai, groq, ollama or gemini, got %q", l.Provider)
		}
		if l.Temperature < 0 || l.Temperature > 2 {
			add("llm.temperature must be between 0 and 2")
		}
		if l.Timeout <= 0 {
			add("llm.timeout must be positive")
		}
		if l.Cooldown < 0 {
			add("llm.cooldown cannot be negative")
		}
	}

	h := c.History
	switch h.Backend {
	case "file":
		if h.Dir == "" {
			add("history.dir cannot be empty")
		}
	case "redis":
		if h.RedisURL == "" {
			add("history.redis_url (or REDIS_URL) is required for the redis backend")
		}
	case "postgres":
		if h.DatabaseURL == "" {
			add("history.database_url (or DATABASE_URL) is required for the postgres backend")
		}
	default:
		add("history.backend must be file, redis or postgres, got %q", h.Backend)
	}

	switch c.Report.Format {
	case "csv", "json", "dual", "pdf":
	default:
		add("report.format must be csv, json, dual or pdf, got %q", c.Report.Format)
	}
	if c.Report.Dir == "" {
		add("report.dir cannot be empty")
	}

	if c.Telegram.Enabled {
		if c.Telegram.Token == "" {
			add("telegram.token (or TELEGRAM_BOT_TOKEN) is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			add("telegram.chat_id (or TELEGRAM_CHAT_ID) is required when telegram is enabled")
		}
	}

	for name, raw := range map[string]string{
		"sites.linkedin_url": c.Sites.LinkedInURL,
		"sites.indeed_url":   c.Sites.IndeedURL,
		"sites.topcv_url":    c.Sites.TopCVURL,
		"sites.itviec_url":   c.Sites.ITviecURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Host == "" {
			add("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if c.Server.Schedule != "" {
		if _, err := cron.ParseStandard(c.Server.Schedule); err != nil {
			add("server.schedule: %v", err)
		}
	}

	if len(c.Tasks) == 0 {
		add("at least one task is required")
	}
	for i, t := range c.Tasks {
		errs = append(errs, t.validate(fmt.Sprintf("tasks[%d]", i))...)
	}
	return errors.Join(errs...)
}

func (t TaskConfig) validate(path string) []error {
	var errs []error
	if strings.TrimSpace(t.SiteName) == "" {
		errs = append(errs, fmt.Errorf("%s.site_name cannot be empty", path))
	}
	if len(t.Queries) == 0 {
		errs = append(errs, fmt.Errorf("%s needs at least one query", path))
	}
	for j, q := range t.Queries {
		qpath := fmt.Sprintf("%s.queries[%d]", path, j)
		if strings.TrimSpace(q.JobTitle) == "" && q.CustomURL == "" {
			errs = append(errs, fmt.Errorf("%s.job_title cannot be empty", qpath))
		}
		if q.NumJobs < 1 {
			errs = append(errs, fmt.Errorf("%s.num_jobs must be at least 1", qpath))
		}
		for _, w := range append(append([]string{}, q.IncludeWords...), q.ExcludeWords...) {
			if strings.TrimSpace(w) == "" {
				errs = append(errs, fmt.Errorf("%s: include_words and exclude_words cannot hold blank entries", qpath))
				break
			}
		}
		if q.HoursWithin < 0 {
			errs = append(errs, fmt.Errorf("%s.hours_within cannot be negative", qpath))
		}
		if _, err := models.ParseExpLevel(q.ExperienceLevel); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", qpath, err))
		}
		if _, err := models.ParseJobType(q.JobType); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", qpath, err))
		}
		if _, err := models.ParseWorkplace(q.Workplace); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", qpath, err))
		}
		if q.CustomURL != "" {
			if u, err := url.Parse(q.CustomURL); err != nil || u.Host == "" {
				errs = append(errs, fmt.Errorf("%s.custom_url must be an absolute URL", qpath))
			}
		}
	}
	return errs
}
