// Package llm wraps the hosted OpenAI-compatible completion API behind a
// small Client interface.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wikiqa/internal/config"
	"wikiqa/internal/httpclient"
	"wikiqa/internal/logging"
	"wikiqa/internal/remote"
)

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	embeddingModel  = "text-embedding-3-small"
	maxResponseSize = 4 << 20
)

// Config configures an OpenAI-compatible client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
	Logger  logging.Logger
}

type openaiClient struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
	headers    map[string]string
}

// NewOpenAIClient constructs a client for the OpenAI-compatible chat
// completions API. A missing API key is a fatal configuration error raised
// here, not at call time.
func NewOpenAIClient(model string, cfg Config) (Client, error) {
	if err := (config.Config{OpenAIAPIKey: cfg.APIKey}).ValidateOpenAI(); err != nil {
		return nil, err
	}
	if model == "" {
		model = config.DefaultModel
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = httpclient.DefaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewComponentLogger("llm")
	}

	return &openaiClient{
		model:      model,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpclient.New(timeout),
		logger:     logger,
		headers:    cfg.Headers,
	}, nil
}

func (c *openaiClient) Model() string { return c.model }

func (c *openaiClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	oaiReq := map[string]any{
		"model":       c.model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
		"max_tokens":  req.MaxTokens,
		"stream":      false,
	}

	body, err := json.Marshal(oaiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Debug("=== LLM Request ===")
	c.logger.Debug("URL: POST %s/chat/completions", c.baseURL)
	c.logger.Debug("Model: %s, messages: %d, max_tokens: %d", c.model, len(req.Messages), req.MaxTokens)

	respBody, err := c.post(ctx, c.baseURL+"/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var oaiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
		Error *struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if oaiResp.Error != nil {
		return nil, fmt.Errorf("api error (%s): %s", oaiResp.Error.Type, oaiResp.Error.Message)
	}
	if len(oaiResp.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in response")
	}

	result := &CompletionResponse{
		Content:    oaiResp.Choices[0].Message.Content,
		StopReason: oaiResp.Choices[0].FinishReason,
		Usage: TokenUsage{
			PromptTokens:     oaiResp.Usage.PromptTokens,
			CompletionTokens: oaiResp.Usage.CompletionTokens,
			TotalTokens:      oaiResp.Usage.TotalTokens,
		},
	}

	c.logger.Debug("=== LLM Response ===")
	c.logger.Debug("Stop Reason: %s, content: %d chars", result.StopReason, len(result.Content))
	c.logger.Debug("Usage: %d prompt + %d completion = %d total tokens",
		result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.TotalTokens)

	return result, nil
}

func (c *openaiClient) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(map[string]any{
		"model": embeddingModel,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.post(ctx, c.baseURL+"/embeddings", body)
	if err != nil {
		return nil, err
	}

	var embResp struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(embResp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return embResp.Data[0].Embedding, nil
}

func (c *openaiClient) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("HTTP request failed: %v", err)
		return nil, remote.WrapNetworkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("Status: %d %s", resp.StatusCode, resp.Status)

	respBody, err := httpclient.ReadAllWithLimit(resp.Body, maxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, remote.ClassifyHTTPStatus(resp.StatusCode, respBody)
	}
	return respBody, nil
}
