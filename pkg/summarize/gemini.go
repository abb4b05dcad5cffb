package summarize

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiDefaultModel is the default model for the Gemini backend.
const GeminiDefaultModel = "gemini-2.0-flash"

// GeminiClient is a Summarizer backed by the Gemini API.
type GeminiClient struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithGeminiModel overrides the model.
func WithGeminiModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithGeminiLimits sets the completion budget.
func WithGeminiLimits(maxTokens int, temperature float64) GeminiOption {
	return func(c *GeminiClient) {
		if maxTokens > 0 {
			c.maxTokens = maxTokens
		}
		if temperature >= 0 {
			c.temperature = temperature
		}
	}
}

// NewGemini creates a Gemini-backed summarizer.
func NewGemini(apiKey string, opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		apiKey:      apiKey,
		model:       GeminiDefaultModel,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the backend identifier.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Summarize sends one generate-content request and returns the model's text.
func (c *GeminiClient) Summarize(ctx context.Context, systemPrompt, userText string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       genai.Ptr(float32(c.temperature)),
		MaxOutputTokens:   int32(c.maxTokens),
	}
	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(userText), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: response contained no text")
	}
	return text, nil
}
