package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"themetree/internal/logging"
)

// GeminiClient implements Client for Google Gemini via the official
// genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// GeminiConfig holds construction-time settings.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey: apiKey,
		Model:  "gemini-2.5-flash",
	}
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{client: client, model: config.Model}, nil
}

// Chat sends the messages and returns the completion text. The system
// message maps to the model's system instruction; assistant turns map
// to the model role.
func (c *GeminiClient) Chat(ctx context.Context, messages []Message, params Params) (string, error) {
	startTime := time.Now()
	logging.API("[Gemini] Chat: model=%s messages=%d", c.model, len(messages))

	config := &genai.GenerateContentConfig{}
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			config.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("no user content in messages")
	}

	if params.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*params.Temperature))
	}
	if params.MaxTokens > 0 {
		config.MaxOutputTokens = int32(params.MaxTokens)
	}
	if params.ResponseFormat == "json_object" {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		logging.APIError("[Gemini] Chat: request failed: %v", err)
		return "", &TransportError{Provider: "gemini", Err: err}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &TransportError{Provider: "gemini", Err: fmt.Errorf("no completion returned")}
	}

	logging.API("[Gemini] Chat: completed in %v response_len=%d", time.Since(startTime), len(text))
	return text, nil
}
