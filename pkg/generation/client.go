// Package generation provides a chat-completions client for external
// text-generation services. Calls return either a parsed structured result
// or a FailureResult value; the client never surfaces upstream failures as
// errors, so pipeline steps can carry them as ordinary data.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/newslens/reframe/pkg/formatting"
)

// Caller is the completion contract consumed by pipeline steps.
// Exactly one of the return values is non-nil.
type Caller interface {
	Call(ctx context.Context, messages []Message, opts Options) (map[string]any, *FailureResult)
}

// Client invokes an OpenAI-compatible chat-completions endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// New creates a generation client from the given configuration.
func New(cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.CallTimeoutDuration()},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger.With("system", "generation"),
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Call issues a completion request and parses the reply as a JSON object.
// Transport failures, non-success statuses, and unparseable content all
// return a FailureResult; a successful parse returns the object.
func (c *Client) Call(ctx context.Context, messages []Message, opts Options) (map[string]any, *FailureResult) {
	start := time.Now()

	content, fail := c.complete(ctx, messages, opts)
	if fail != nil {
		c.logger.Warn("generation call failed",
			"model", opts.Model,
			"error", fail.Error,
			"duration", time.Since(start),
		)
		return nil, fail
	}

	parsed, err := formatting.Extract(content)
	if err != nil {
		c.logger.Warn("generation reply not parseable",
			"model", opts.Model,
			"duration", time.Since(start),
		)
		return nil, &FailureResult{
			Error:      "response content is not parseable structured data",
			RawContent: content,
		}
	}

	c.logger.Debug("generation call complete",
		"model", opts.Model,
		"duration", time.Since(start),
	)
	return parsed, nil
}

func (c *Client) complete(ctx context.Context, messages []Message, opts Options) (string, *FailureResult) {
	payload := chatRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONResponse {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &FailureResult{Error: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", &FailureResult{Error: fmt.Sprintf("build request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &FailureResult{Error: fmt.Sprintf("transport: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FailureResult{Error: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FailureResult{
			Error:      fmt.Sprintf("service returned status %d", resp.StatusCode),
			RawContent: string(raw),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &FailureResult{
			Error:      fmt.Sprintf("decode response envelope: %v", err),
			RawContent: string(raw),
		}
	}

	if len(parsed.Choices) == 0 {
		return "", &FailureResult{
			Error:      "response contained no choices",
			RawContent: string(raw),
		}
	}

	return parsed.Choices[0].Message.Content, nil
}
