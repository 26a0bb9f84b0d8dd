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

// IFlowClient implements Client for the iFlow OpenAI-compatible
// chat-completions API.
type IFlowClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// IFlowConfig holds construction-time settings.
type IFlowConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultIFlowConfig returns sensible defaults.
func DefaultIFlowConfig(apiKey string) IFlowConfig {
	return IFlowConfig{
		APIKey:  apiKey,
		BaseURL: "https://apis.iflow.cn/v1",
		Model:   "gpt-4o",
		Timeout: 2 * time.Minute,
	}
}

// NewIFlowClient creates a client with default config.
func NewIFlowClient(apiKey string) *IFlowClient {
	return NewIFlowClientWithConfig(DefaultIFlowConfig(apiKey))
}

// NewIFlowClientWithConfig creates a client with custom config.
func NewIFlowClientWithConfig(config IFlowConfig) *IFlowClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://apis.iflow.cn/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}
	return &IFlowClient{
		apiKey:  config.APIKey,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type iflowRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type iflowResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends the messages and returns the completion text.
func (c *IFlowClient) Chat(ctx context.Context, messages []Message, params Params) (string, error) {
	if c.apiKey == "" {
		return "", &TransportError{Provider: "iflow", Err: fmt.Errorf("API key not configured")}
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	c.throttle()

	startTime := time.Now()
	logging.API("[iFlow] Chat: model=%s messages=%d", c.model, len(messages))

	reqBody := iflowRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
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

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.APIError("[iFlow] Chat: request failed: %v", err)
		return "", &TransportError{Provider: "iflow", Err: err}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	resp.Body.Close()
	if err != nil {
		return "", &TransportError{Provider: "iflow", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		logging.APIError("[iFlow] Chat: status %d: %s", resp.StatusCode, string(body))
		return "", &TransportError{
			Provider: "iflow",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var ifResp iflowResponse
	if err := json.Unmarshal(body, &ifResp); err != nil {
		return "", &TransportError{Provider: "iflow", Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if ifResp.Error != nil {
		return "", &TransportError{Provider: "iflow", Err: fmt.Errorf("API error: %s", ifResp.Error.Message)}
	}
	if len(ifResp.Choices) == 0 {
		return "", &TransportError{Provider: "iflow", Err: fmt.Errorf("no completion returned")}
	}

	response := strings.TrimSpace(ifResp.Choices[0].Message.Content)
	logging.API("[iFlow] Chat: completed in %v response_len=%d", time.Since(startTime), len(response))
	return response, nil
}

func (c *IFlowClient) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elapsed := time.Since(c.lastRequest); elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
}
