// Package assistant coordinates page state, conversation state and the
// completion call for one user session.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"wikiqa/internal/llm"
	"wikiqa/internal/logging"
	"wikiqa/internal/token"
)

const (
	answerSystemPrompt = `You are a helpful assistant that answers questions based on the provided context.
If the answer cannot be found in the context, say "I couldn't find the answer in the provided content."
Be concise and to the point in your responses.`

	summarySystemPrompt = "You are a helpful assistant that summarizes text concisely while preserving key information."

	// FallbackAnswer is returned whenever the completion call itself fails.
	// The failure is logged; the caller only ever sees this string.
	FallbackAnswer = "I'm sorry, I encountered an error while processing your request."

	answerTemperature = 0.3
	answerMaxTokens   = 500
	summaryFallback   = 500 // chars of input kept when summarization fails
)

// Answerer generates grounded answers and summaries over a completion
// client. All remote failures are absorbed here: callers receive fallback
// text, never an error.
type Answerer struct {
	client        llm.Client
	logger        logging.Logger
	contextTokens int
}

// NewAnswerer wraps client. contextTokens bounds how many tokens of page
// context are sent per question; <= 0 disables truncation.
func NewAnswerer(client llm.Client, contextTokens int, logger logging.Logger) *Answerer {
	return &Answerer{
		client:        client,
		logger:        logging.OrNop(logger),
		contextTokens: contextTokens,
	}
}

// GenerateAnswer answers question from context alone. The context is
// truncated to the configured token budget first; an oversized page must
// degrade to a partial context rather than a failed call.
func (a *Answerer) GenerateAnswer(ctx context.Context, contextText, question string) string {
	bounded := contextText
	if a.contextTokens > 0 {
		bounded = token.Truncate(contextText, a.contextTokens)
		if len(bounded) < len(contextText) {
			a.logger.Warn("context truncated from %d to %d tokens before completion",
				token.Count(contextText), a.contextTokens)
		}
	}

	req := llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: answerSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Context: %s\n\nQuestion: %s", bounded, question)},
		},
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	}

	resp, err := a.client.Complete(ctx, req)
	if err != nil {
		a.logger.Error("generate answer: %v", err)
		return FallbackAnswer
	}
	return strings.TrimSpace(resp.Content)
}

// Summarize produces a summary of at most maxTokens output tokens. On
// failure it degrades to a prefix of the input.
func (a *Answerer) Summarize(ctx context.Context, text string, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = 300
	}

	req := llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: "Please summarize the following text concisely:\n\n" + text},
		},
		Temperature: answerTemperature,
		MaxTokens:   maxTokens,
	}

	resp, err := a.client.Complete(ctx, req)
	if err != nil {
		a.logger.Error("summarize: %v", err)
		runes := []rune(text)
		if len(runes) > summaryFallback {
			return string(runes[:summaryFallback]) + "..."
		}
		return text
	}
	return strings.TrimSpace(resp.Content)
}

// CountTokens reports the token count of text under the model tokenizer.
// Diagnostic only; nothing in the pipeline enforces it directly.
func (a *Answerer) CountTokens(text string) int {
	return token.Count(text)
}
