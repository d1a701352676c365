// Package ai holds the LLM capability, its HTTP providers and the classification gate.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LLM answers one system+user prompt pair with plain text.
type LLM interface {
	Invoke(ctx context.Context, system, user string) (string, error)
}

// Config selects and parameterises a provider.
type Config struct {
	Provider    string // openai | groq | ollama | gemini
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
}

// NewClient builds the provider named by cfg.Provider. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client) (LLM, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	switch strings.ToLower(cfg.Provider) {
	case "groq", "":
		if cfg.BaseURL == "" {
			cfg.BaseURL = groqBaseURL
		}
		if cfg.Model == "" {
			cfg.Model = "llama-3.3-70b-versatile"
		}
		return NewOpenAIClient(cfg, httpClient), nil
	case "openai":
		if cfg.BaseURL == "" {
			cfg.BaseURL = openAIBaseURL
		}
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
		return NewOpenAIClient(cfg, httpClient), nil
	case "ollama":
		return NewOllamaClient(cfg, httpClient), nil
	case "gemini":
		return NewGeminiClient(cfg, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// postJSON sends body as JSON and decodes a 200 response into out.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(bodyBytes), 300))
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
