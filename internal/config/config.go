// Package config loads the YAML run configuration, overlays secrets from the
// environment (.env included) and validates it before anything is constructed.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Browser     BrowserConfig  `yaml:"browser"`
	LLM         LLMConfig      `yaml:"llm"`
	History     HistoryConfig  `yaml:"history"`
	Report      ReportConfig   `yaml:"report"`
	Telegram    TelegramConfig `yaml:"telegram"`
	Sites       SitesConfig    `yaml:"sites"`
	ProfilesDir string         `yaml:"profiles_dir"`
	Server      ServerConfig   `yaml:"server"`
	Tasks       []TaskConfig   `yaml:"tasks"`
}

type BrowserConfig struct {
	Driver            string        `yaml:"driver"` // playwright | static
	Headless          bool          `yaml:"headless"`
	UserDataDir       string        `yaml:"user_data_dir"`
	BinaryPath        string        `yaml:"binary_path"`
	CookiesPath       string        `yaml:"cookies_path"`
	LoadTimeout       time.Duration `yaml:"load_timeout"`
	MaxLoadAttempts   int           `yaml:"max_load_attempts"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
	RetryBackoffMax   time.Duration `yaml:"retry_backoff_max"`
	MaxBypassAttempts int           `yaml:"max_bypass_attempts"`
	BypassWait        time.Duration `yaml:"bypass_wait"`
	MaxPages          int           `yaml:"max_pages"`
	ScreenshotDir     string        `yaml:"screenshot_dir"`
	UserAgent         string        `yaml:"user_agent"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"` // openai | groq | ollama | gemini
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

type HistoryConfig struct {
	Backend     string `yaml:"backend"` // file | redis | postgres
	Dir         string `yaml:"dir"`
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`
	DatabaseURL string `yaml:"database_url"`
}

type ReportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // csv | json | dual | pdf
}

type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Token       string `yaml:"token"`
	ChatID      int64  `yaml:"chat_id"`
	MaxPostings int    `yaml:"max_postings"`
}

type SitesConfig struct {
	LinkedInURL string `yaml:"linkedin_url"`
	IndeedURL   string `yaml:"indeed_url"`
	TopCVURL    string `yaml:"topcv_url"`
	ITviecURL   string `yaml:"itviec_url"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr"`
	Schedule string `yaml:"schedule"`
}

type TaskConfig struct {
	SiteName          string        `yaml:"site_name"`
	LLMFilter         bool          `yaml:"llm_filter"`
	WorkExp           string        `yaml:"work_exp"`
	Skillset          string        `yaml:"skillset"`
	ExcludedCompanies []string      `yaml:"excluded_companies"`
	Queries           []QueryConfig `yaml:"queries"`
}

type QueryConfig struct {
	JobTitle         string   `yaml:"job_title"`
	Location         string   `yaml:"location"`
	NumJobs          int      `yaml:"num_jobs"`
	HoursWithin      int      `yaml:"hours_within"`
	IncludeWords     []string `yaml:"include_words"`
	ExcludeWords     []string `yaml:"exclude_words"`
	FetchDescription bool     `yaml:"fetch_description"`
	ExperienceLevel  string   `yaml:"experience_level"`
	JobType          string   `yaml:"job_type"`
	Workplace        string   `yaml:"workplace"`
	CustomURL        string   `yaml:"custom_url"`
}

// DefaultConfig returns the settings used for anything the file leaves out.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Driver:            "playwright",
			Headless:          true,
			CookiesPath:       ".cookies",
			LoadTimeout:       30 * time.Second,
			MaxLoadAttempts:   3,
			RetryBackoff:      2 * time.Second,
			RetryBackoffMax:   30 * time.Second,
			MaxBypassAttempts: 3,
			BypassWait:        7 * time.Second,
			MaxPages:          20,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		},
		LLM: LLMConfig{
			Provider:    "groq",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
			Cooldown:    5 * time.Second,
		},
		History: HistoryConfig{
			Backend:     "file",
			Dir:         "historical_job_ids",
			RedisPrefix: "jobscout",
		},
		Report: ReportConfig{
			Dir:    "scrapped_jobs",
			Format: "csv",
		},
		Telegram: TelegramConfig{
			MaxPostings: 10,
		},
		Sites: SitesConfig{
			IndeedURL: "https://www.indeed.com",
		},
		ProfilesDir: "skillset",
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and validates.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over DefaultConfig. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := EnvString("LLM_API_KEY"); ok {
		c.LLM.APIKey = v
	}
	if v, ok := EnvString("TELEGRAM_BOT_TOKEN"); ok {
		c.Telegram.Token = v
	}
	if v, ok, err := EnvInt64("TELEGRAM_CHAT_ID"); err != nil {
		return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	} else if ok {
		c.Telegram.ChatID = v
	}
	if v, ok := EnvString("DATABASE_URL"); ok {
		c.History.DatabaseURL = v
	}
	if v, ok := EnvString("REDIS_URL"); ok {
		c.History.RedisURL = v
	}
	if v, ok, err := EnvInt("JOBSCOUT_MAX_PAGES"); err != nil {
		return fmt.Errorf("invalid JOBSCOUT_MAX_PAGES: %w", err)
	} else if ok {
		c.Browser.MaxPages = v
	}
	return nil
}

// UsesLLM reports whether any task asks for classification.
func (c *Config) UsesLLM() bool {
	for _, t := range c.Tasks {
		if t.LLMFilter {
			return true
		}
	}
	return false
}
