// Package llm wraps OpenAI-compatible chat completion APIs (Groq, OpenAI)
// for the transcript enhancement and translation stages.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subgen/internal/services"
)

const (
	jsonResponseType      = "json_object"
	defaultHTTPTimeout    = 2 * time.Minute
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// Config captures the runtime settings required to talk to the chat API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	TimeoutSeconds int
}

// Client issues chat completion requests.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	sleeper        func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a chat completion client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Temperature:    cfg.Temperature,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:     &http.Client{Timeout: timeout},
		retryBaseDelay: defaultRetryBaseDelay,
		retryMaxDelay:  defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	return client
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.cfg.Model }

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CompleteJSON requests a JSON-only completion. The first attempt asks the
// provider for structured output; if the provider rejects the request or
// returns nothing usable, one more attempt is made without the structured
// output hint, since not every model supports json_object mode.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if systemPrompt == "" || userPrompt == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "complete", "system and user prompts required", nil)
	}
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "complete", "api key required", nil)
	}

	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    c.cfg.Temperature,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	content, firstErr := c.sendWithBackoff(ctx, payload)
	if firstErr == nil {
		return content, nil
	}
	if ctx.Err() != nil {
		return "", firstErr
	}

	payload.ResponseFormat = nil
	content, retryErr := c.sendWithBackoff(ctx, payload)
	if retryErr != nil {
		return "", fmt.Errorf("llm complete: structured attempt failed (%v); plain attempt: %w", firstErr, retryErr)
	}
	return content, nil
}

// sendWithBackoff retries transient HTTP failures (429, 5xx) with exponential
// backoff before giving up.
func (c *Client) sendWithBackoff(ctx context.Context, payload chatCompletionRequest) (string, error) {
	const attempts = 3
	var lastErr error
	delay := c.retryBaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		content, retryable, err := c.sendOnce(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable || attempt == attempts || ctx.Err() != nil {
			return "", lastErr
		}
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
		if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
			delay = c.retryMaxDelay
		}
	}
	return "", lastErr
}

func (c *Client) sendOnce(ctx context.Context, payload chatCompletionRequest) (string, bool, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", false, fmt.Errorf("llm request: encode body: %w", err)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", false, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, services.Wrap(services.ErrBackend, "llm", "request", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, services.Wrap(services.ErrBackend, "llm", "request", "read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return "", retryable, services.Wrap(services.ErrBackend, "llm", "request",
			fmt.Sprintf("http %d: %s", resp.StatusCode, payloadSnippet(string(body))), nil)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", false, services.Wrap(services.ErrParse, "llm", "request", "decode response", err)
	}
	if completion.Error != nil {
		return "", false, services.Wrap(services.ErrBackend, "llm", "request", strings.TrimSpace(completion.Error.Message), nil)
	}
	if len(completion.Choices) == 0 {
		return "", false, services.Wrap(services.ErrBackend, "llm", "request", "no choices in response", nil)
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", true, services.Wrap(services.ErrBackend, "llm", "request",
			fmt.Sprintf("empty content (finish_reason=%q)", completion.Choices[0].FinishReason), nil)
	}
	return content, false, nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
