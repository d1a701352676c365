package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const ollamaBaseURL = "http://localhost:11434"

// OllamaClient talks to a local Ollama server through /api/chat.
type OllamaClient struct {
	url         string
	model       string
	temperature float64
	httpClient  *http.Client
}

func NewOllamaClient(cfg Config, httpClient *http.Client) *OllamaClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	base := cfg.BaseURL
	if base == "" {
		base = ollamaBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "llama3.1"
	}
	return &OllamaClient{
		url:         strings.TrimRight(base, "/") + "/api/chat",
		model:       model,
		temperature: cfg.Temperature,
		httpClient:  httpClient,
	}
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  struct {
		Temperature float64 `json:"temperature"`
	} `json:"options"`
}

type ollamaResponse struct {
	Message *chatMessage `json:"message"`
	Error   string       `json:"error,omitempty"`
}

func (c *OllamaClient) Invoke(ctx context.Context, system, user string) (string, error) {
	req := ollamaRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	req.Options.Temperature = c.temperature

	var resp ollamaResponse
	if err := postJSON(ctx, c.httpClient, c.url, nil, req, &resp); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", resp.Error)
	}
	if resp.Message == nil {
		return "", errors.New("ollama returned no message")
	}
	return resp.Message.Content, nil
}
