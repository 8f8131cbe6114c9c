package llm

import "context"

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// CompletionRequest describes one chat completion call.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// CompletionResponse is the single completion returned by the API.
type CompletionResponse struct {
	Content    string     `json:"content"`
	StopReason string     `json:"stop_reason"`
	Usage      TokenUsage `json:"usage"`
}

// TokenUsage tracks token consumption for one call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Client is a hosted completion API.
type Client interface {
	// Complete sends one chat completion request and returns the first
	// choice.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Model reports the completion model this client targets.
	Model() string
}
