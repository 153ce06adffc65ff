// Package gemini wraps the Gemini SDK for JSON-mode document analysis.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/paycasso/paycasso/internal/config"
)

const (
	// DefaultModel is used when GEMINI_MODEL is unset.
	DefaultModel    = "gemini-1.5-flash"
	requestTimeout  = 120 * time.Second
	maxAnalyzeTries = 3
	retryBaseDelay  = 400 * time.Millisecond
	jsonMIMEType    = "application/json"
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("gemini api key not configured")
	// ErrInvalidJSON is returned when the model answers with content that is not JSON.
	ErrInvalidJSON = errors.New("gemini response is not valid json")

	errEmptyResponse = errors.New("gemini response has no content")
)

// Client asks a Gemini model for JSON answers. A Client without an API key
// is valid and fails every call with ErrNotConfigured.
type Client struct {
	models     *genai.Models
	model      string
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient builds a client from cfg. The SDK client is only created when an
// API key is set.
func NewClient(cfg config.GeminiConfig, logger *slog.Logger) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	c := &Client{model: model, retryDelay: retryBaseDelay, logger: logger}
	if cfg.APIKey == "" {
		return c, nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	sdk, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimSpace(cfg.BaseURL)},
	})
	if err != nil {
		return nil, fmt.Errorf("build gemini client: %w", err)
	}
	c.models = sdk.Models
	return c, nil
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.models != nil
}

// Analyze asks the model for a JSON answer at temperature 0 and returns it.
// Rate limits, server errors and timeouts are retried.
func (c *Client) Analyze(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("user prompt is required")
	}

	temperature := float32(0)
	genCfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: jsonMIMEType,
	}
	if systemPrompt = strings.TrimSpace(systemPrompt); systemPrompt != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: userPrompt}}}}

	var lastErr error
	for attempt := 1; attempt <= maxAnalyzeTries; attempt++ {
		content, err := c.analyzeOnce(ctx, contents, genCfg)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if attempt >= maxAnalyzeTries || !isRetryable(err) {
			return "", err
		}
		c.logger.Info("retrying gemini request", slog.Int("attempt", attempt), slog.Int("max_attempts", maxAnalyzeTries), slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.retryDelay * time.Duration(attempt)):
		}
	}

	return "", lastErr
}

func (c *Client) analyzeOnce(ctx context.Context, contents []*genai.Content, genCfg *genai.GenerateContentConfig) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Error("gemini api error", slog.Int("status", apiErr.Code), slog.String("message", truncateForLog(apiErr.Message, 1000)))
		}
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	content := stripFence(responseText(resp))
	if content == "" {
		return "", errEmptyResponse
	}
	if !json.Valid([]byte(content)) {
		c.logger.Error("gemini returned non-json content", slog.String("raw", truncateForLog(content, 1000)))
		return "", ErrInvalidJSON
	}

	c.logger.Debug("gemini response received", slog.String("content", truncateForLog(content, 200)))
	return content, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// Some models wrap JSON-mode answers in a markdown code fence anyway.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errEmptyResponse) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "...(truncated)"
}
