package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenRouterTestClient(serverURL string) *OpenRouterClient {
	return NewOpenRouterClientWithConfig(OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "openai/gpt-4o-mini",
		Timeout: 5 * time.Second,
	})
}

func completionBody(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestOpenRouterClientChat(t *testing.T) {
	t.Run("successful completion", func(t *testing.T) {
		var gotReq openRouterRequest
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(completionBody("  {\"label\": \"X\"}  ")))
		}))
		defer server.Close()

		client := newOpenRouterTestClient(server.URL)
		temp := 0.2
		text, err := client.Chat(context.Background(),
			SystemUser("sys", "user"),
			Params{Temperature: &temp, MaxTokens: 512, ResponseFormat: "json_object"})
		require.NoError(t, err)

		assert.Equal(t, `{"label": "X"}`, text, "response is trimmed")
		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, "openai/gpt-4o-mini", gotReq.Model)
		require.Len(t, gotReq.Messages, 2)
		assert.Equal(t, "system", gotReq.Messages[0].Role)
		assert.Equal(t, 512, gotReq.MaxTokens)
		require.NotNil(t, gotReq.Temperature)
		assert.Equal(t, 0.2, *gotReq.Temperature)
		assert.Equal(t, map[string]interface{}{"type": "json_object"}, gotReq.ResponseFormat)
	})

	t.Run("non-200 status becomes TransportError with status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
		}))
		defer server.Close()

		client := newOpenRouterTestClient(server.URL)
		_, err := client.Chat(context.Background(), SystemUser("sys", "user"), Params{})

		var transportErr *TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, "openrouter", transportErr.Provider)
		assert.Equal(t, http.StatusTooManyRequests, transportErr.Status)
		assert.Contains(t, transportErr.Error(), "rate limit exceeded")
	})

	t.Run("API error payload with 200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error": {"message": "model not found", "code": 404}}`))
		}))
		defer server.Close()

		client := newOpenRouterTestClient(server.URL)
		_, err := client.Chat(context.Background(), SystemUser("sys", "user"), Params{})

		var transportErr *TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Contains(t, transportErr.Error(), "model not found")
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		client := newOpenRouterTestClient(server.URL)
		_, err := client.Chat(context.Background(), SystemUser("sys", "user"), Params{})
		assert.ErrorContains(t, err, "no completion returned")
	})

	t.Run("missing API key fails before any request", func(t *testing.T) {
		client := NewOpenRouterClientWithConfig(OpenRouterConfig{Model: "m"})
		_, err := client.Chat(context.Background(), SystemUser("sys", "user"), Params{})

		var transportErr *TransportError
		require.True(t, errors.As(err, &transportErr))
		assert.Contains(t, transportErr.Error(), "API key not configured")
	})

	t.Run("requests are spaced apart", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(completionBody("ok")))
		}))
		defer server.Close()

		client := newOpenRouterTestClient(server.URL)
		start := time.Now()
		for i := 0; i < 3; i++ {
			_, err := client.Chat(context.Background(), SystemUser("sys", "user"), Params{})
			require.NoError(t, err)
		}
		assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	})
}
