package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"themetree/internal/logging"
)

// OpenRouterClient implements Client for the OpenRouter
// chat-completions API. OpenRouter fronts many upstream models behind
// one endpoint.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	siteURL    string
	siteName   string

	mu          sync.Mutex
	lastRequest time.Time
}

// OpenRouterConfig holds construction-time settings.
type OpenRouterConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	SiteURL  string
	SiteName string
}

// DefaultOpenRouterConfig returns sensible defaults.
func DefaultOpenRouterConfig(apiKey string) OpenRouterConfig {
	return OpenRouterConfig{
		APIKey:   apiKey,
		BaseURL:  "https://openrouter.ai/api/v1",
		Model:    "openai/gpt-4o-mini",
		Timeout:  2 * time.Minute,
		SiteName: "themetree",
	}
}

// NewOpenRouterClient creates a client with default config.
func NewOpenRouterClient(apiKey string) *OpenRouterClient {
	return NewOpenRouterClientWithConfig(DefaultOpenRouterConfig(apiKey))
}

// NewOpenRouterClientWithConfig creates a client with custom config.
func NewOpenRouterClientWithConfig(config OpenRouterConfig) *OpenRouterClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://openrouter.ai/api/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}
	return &OpenRouterClient{
		apiKey:   config.APIKey,
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		model:    config.Model,
		siteURL:  config.SiteURL,
		siteName: config.SiteName,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type openRouterRequest struct {
	Model          string                 `json:"model"`
	Messages       []Message              `json:"messages"`
	MaxTokens      int                    `json:"max_tokens,omitempty"`
	Temperature    *float64               `json:"temperature,omitempty"`
	ResponseFormat map[string]interface{} `json:"response_format,omitempty"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Chat sends the messages and returns the completion text. Failures
// come back as *TransportError. The client never retries on its own;
// retry policy belongs to the batch runner.
func (c *OpenRouterClient) Chat(ctx context.Context, messages []Message, params Params) (string, error) {
	if c.apiKey == "" {
		return "", &TransportError{Provider: "openrouter", Err: fmt.Errorf("API key not configured")}
	}

	// Auto-apply timeout if the context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	c.throttle()

	startTime := time.Now()
	logging.API("[OpenRouter] Chat: model=%s messages=%d", c.model, len(messages))

	reqBody := openRouterRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}
	if params.ResponseFormat == "json_object" {
		reqBody.ResponseFormat = map[string]interface{}{"type": "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.APIError("[OpenRouter] Chat: request failed: %v", err)
		return "", &TransportError{Provider: "openrouter", Err: err}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	resp.Body.Close()
	if err != nil {
		return "", &TransportError{Provider: "openrouter", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		logging.APIError("[OpenRouter] Chat: status %d: %s", resp.StatusCode, string(body))
		return "", &TransportError{
			Provider: "openrouter",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var orResp openRouterResponse
	if err := json.Unmarshal(body, &orResp); err != nil {
		return "", &TransportError{Provider: "openrouter", Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if orResp.Error != nil {
		return "", &TransportError{Provider: "openrouter", Err: fmt.Errorf("API error: %s", orResp.Error.Message)}
	}
	if len(orResp.Choices) == 0 {
		return "", &TransportError{Provider: "openrouter", Err: fmt.Errorf("no completion returned")}
	}

	response := strings.TrimSpace(orResp.Choices[0].Message.Content)
	logging.API("[OpenRouter] Chat: completed in %v response_len=%d", time.Since(startTime), len(response))
	return response, nil
}

// throttle spaces requests 100ms apart so bursts from the batch runner
// stay under the provider's per-second limit.
func (c *OpenRouterClient) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elapsed := time.Since(c.lastRequest); elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
}
