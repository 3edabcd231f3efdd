// Package groq calls the Groq speech-to-text API, which speaks the
// OpenAI-compatible audio transcription protocol.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"subgen/internal/logging"
	"subgen/internal/segments"
	"subgen/internal/services"
)

const (
	defaultBaseURL     = "https://api.groq.com/openai/v1"
	defaultHTTPTimeout = 5 * time.Minute
)

// Config captures the runtime settings for remote transcription.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// Client issues transcription requests against the Groq API.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (used by tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a transcription client.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:      strings.TrimSpace(cfg.APIKey),
			BaseURL:     strings.TrimSpace(cfg.BaseURL),
			Model:       strings.TrimSpace(cfg.Model),
			Temperature: cfg.Temperature,
		},
		logger:     logging.WithComponent(logger, "groq"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// transcriptionResponse mirrors the verbose_json payload. Segment timestamps
// are optional: some models return only the full text.
type transcriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// transcriptKind distinguishes responses with per-segment timestamps from
// single-blob responses so the fallback is an explicit branch instead of a
// capability probe.
type transcriptKind int

const (
	transcriptDetailed transcriptKind = iota
	transcriptSummary
)

func (r transcriptionResponse) kind() transcriptKind {
	if len(r.Segments) > 0 {
		return transcriptDetailed
	}
	return transcriptSummary
}

// Transcribe uploads the audio file and normalizes the response into the
// canonical transcript document. A summary-only response is synthesized into
// a single segment spanning [0,0].
func (c *Client) Transcribe(ctx context.Context, audioPath, languageHint string) (segments.Document, error) {
	if c.cfg.APIKey == "" {
		return segments.Document{}, services.Wrap(services.ErrValidation, "transcribe", "groq", "api key required (set api.groq_api_key or GROQ_API_KEY)", nil)
	}

	audio, err := os.Open(audioPath)
	if err != nil {
		return segments.Document{}, services.Wrap(services.ErrNotFound, "transcribe", "groq", audioPath, err)
	}
	defer audio.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return segments.Document{}, fmt.Errorf("build multipart request: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return segments.Document{}, fmt.Errorf("read audio %q: %w", audioPath, err)
	}
	fields := map[string]string{
		"model":           c.cfg.Model,
		"response_format": "verbose_json",
		"temperature":     strconv.FormatFloat(c.cfg.Temperature, 'f', -1, 64),
	}
	if languageHint != "" {
		fields["language"] = languageHint
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return segments.Document{}, fmt.Errorf("build multipart request: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return segments.Document{}, fmt.Errorf("build multipart request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return segments.Document{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Info("transcribing via remote API",
		logging.String("audio", audioPath),
		logging.String("model", c.cfg.Model))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return segments.Document{}, services.Wrap(services.ErrBackend, "transcribe", "groq", "request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return segments.Document{}, services.Wrap(services.ErrBackend, "transcribe", "groq", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := strings.TrimSpace(string(payload))
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return segments.Document{}, services.Wrap(services.ErrBackend, "transcribe", "groq", fmt.Sprintf("http %d: %s", resp.StatusCode, snippet), nil)
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return segments.Document{}, services.Wrap(services.ErrParse, "transcribe", "groq", "response json", err)
	}

	doc := segments.Document{Language: parsed.Language}
	switch parsed.kind() {
	case transcriptDetailed:
		for _, seg := range parsed.Segments {
			end := seg.End
			if end < seg.Start {
				end = seg.Start
			}
			doc.Segments = append(doc.Segments, segments.Segment{
				Start: seg.Start,
				End:   end,
				Text:  strings.TrimSpace(seg.Text),
			})
		}
	case transcriptSummary:
		c.logger.Warn("remote API returned no segment timestamps, synthesizing single segment")
		doc.Segments = []segments.Segment{{Start: 0, End: 0, Text: strings.TrimSpace(parsed.Text)}}
	}
	return doc, nil
}
