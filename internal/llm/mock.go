package llm

import (
	"context"
	"fmt"
)

// MockClient implements Client for tests. Responses are scripted per call;
// when the script runs out, Reply is returned.
type MockClient struct {
	ModelName string
	Reply     string
	Replies   []string
	Embedding []float64
	Err       error

	// Requests records every CompletionRequest received, in order.
	Requests []CompletionRequest

	calls int
}

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}

	content := m.Reply
	if m.calls < len(m.Replies) {
		content = m.Replies[m.calls]
	}
	m.calls++

	return &CompletionResponse{
		Content:    content,
		StopReason: "stop",
		Usage:      TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (m *MockClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Embedding != nil {
		return m.Embedding, nil
	}
	return []float64{0.1, 0.2, 0.3}, nil
}

func (m *MockClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// LastRequest returns the most recent request, or an error when none were
// made.
func (m *MockClient) LastRequest() (CompletionRequest, error) {
	if len(m.Requests) == 0 {
		return CompletionRequest{}, fmt.Errorf("no requests recorded")
	}
	return m.Requests[len(m.Requests)-1], nil
}
