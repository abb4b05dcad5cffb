package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// GroqDefaultBaseURL is the Groq OpenAI-compatible API endpoint.
	GroqDefaultBaseURL = "https://api.groq.com/openai/v1"
	// GroqDefaultModel is a fast model suited to short call summaries.
	GroqDefaultModel = "llama-3.1-8b-instant"

	defaultMaxTokens   = 300
	defaultTemperature = 0.3
)

// GroqClient is a Summarizer backed by Groq's chat completions API.
type GroqClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// GroqOption configures a GroqClient.
type GroqOption func(*GroqClient)

// WithGroqBaseURL overrides the API endpoint.
func WithGroqBaseURL(baseURL string) GroqOption {
	return func(c *GroqClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithGroqModel overrides the model.
func WithGroqModel(model string) GroqOption {
	return func(c *GroqClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithGroqHTTPClient sets a custom HTTP client.
func WithGroqHTTPClient(client *http.Client) GroqOption {
	return func(c *GroqClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithGroqLimits sets the completion budget.
func WithGroqLimits(maxTokens int, temperature float64) GroqOption {
	return func(c *GroqClient) {
		if maxTokens > 0 {
			c.maxTokens = maxTokens
		}
		if temperature >= 0 {
			c.temperature = temperature
		}
	}
}

// NewGroq creates a Groq-backed summarizer.
func NewGroq(apiKey string, opts ...GroqOption) *GroqClient {
	c := &GroqClient{
		apiKey:      apiKey,
		baseURL:     GroqDefaultBaseURL,
		model:       GroqDefaultModel,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		httpClient:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the backend identifier.
func (c *GroqClient) Name() string {
	return "groq"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Summarize sends one chat completion request and returns the model's text.
func (c *GroqClient) Summarize(ctx context.Context, systemPrompt, userText string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp chatErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("groq: %s (%s)", errResp.Error.Message, errResp.Error.Type)
		}
		return "", fmt.Errorf("groq: status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("groq: response contained no choices")
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
