// Package llm provides the chat-completions client used by LLM-backed
// workflow handlers. The wire format follows the OpenAI-compatible
// endpoint exposed by DashScope and most other providers.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dukex/dailygate/pkg/config"
)

// ErrMissingAPIKey indicates the client was constructed without a key.
// Handlers surface it as a configuration error, not an execution bug.
var ErrMissingAPIKey = errors.New("llm api key is not configured")

// CompletionRequest describes one chat completion.
type CompletionRequest struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float64
}

// CompletionResponse carries the model output plus reported usage.
type CompletionResponse struct {
	Content    string
	TokensUsed int
}

// Client is the completion interface consumed by handlers.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// APIError is returned when the upstream API answers with a non-2xx
// status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api returned status %d: %s", e.Status, e.Body)
}

// HTTPClient implements Client against an OpenAI-compatible
// chat-completions endpoint. The configured timeout bounds every
// request so a stalled upstream cannot block a workflow indefinitely.
type HTTPClient struct {
	settings   config.LLMSettings
	httpClient *http.Client
}

func NewHTTPClient(settings config.LLMSettings) *HTTPClient {
	return &HTTPClient{
		settings:   settings,
		httpClient: &http.Client{Timeout: settings.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *HTTPClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if c.settings.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}

	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(chatRequest{
		Model:       c.settings.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	url := strings.TrimSuffix(c.settings.BaseURL, "/") + "/chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.settings.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return nil, errors.New("completion response has no choices")
	}

	return &CompletionResponse{
		Content:    parsed.Choices[0].Message.Content,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}
