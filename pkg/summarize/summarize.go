// Package summarize provides clients for the external summarization
// service: text in, text out. Two backends are supported, a Groq
// (OpenAI-compatible) chat completions client and a Gemini client.
// Absence of credentials is the caller's signal to degrade; it is never
// raised as an error from here.
package summarize

import "context"

// Summarizer condenses user text under a system instruction.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, systemPrompt, userText string) (string, error)
}
