package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicClient_Complete(t *testing.T) {
	var gotReq anthropicRequest
	var gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"id": "msg_1",
			"content": []map[string]string{
				{"type": "text", "text": "Hello "},
				{"type": "text", "text": "world."},
			},
		})
	}))
	defer srv.Close()

	c := NewAnthropicClientWithConfig(AnthropicConfig{
		APIKey:  "key-1",
		BaseURL: srv.URL,
		Model:   "test-model",
	})

	text, err := c.CompleteWithSystem(context.Background(), "be brief", "say hello")
	require.NoError(t, err)

	assert.Equal(t, "Hello world.", text)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "2023-06-01", gotVersion)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, "be brief", gotReq.System)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "say hello", gotReq.Messages[0].Content)
}

func TestAnthropicClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "overloaded_error", "message": "overloaded"},
		})
	}))
	defer srv.Close()

	c := NewAnthropicClientWithConfig(AnthropicConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "hi")
	assert.ErrorContains(t, err, "overloaded")
}

func TestAnthropicClient_MissingKey(t *testing.T) {
	c := NewAnthropicClient("")
	_, err := c.Complete(context.Background(), "hi")
	assert.Error(t, err)
}

func TestOpenAIClient_Complete(t *testing.T) {
	var gotReq openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-2", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  Hello.  "}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClientWithConfig(OpenAIConfig{APIKey: "key-2", BaseURL: srv.URL, Model: "gpt-test"})

	text, err := c.CompleteWithSystem(context.Background(), "be brief", "say hello")
	require.NoError(t, err)

	assert.Equal(t, "Hello.", text, "responses are trimmed")
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "chatcmpl-1", "choices": []any{}})
	}))
	defer srv.Close()

	c := NewOpenAIClientWithConfig(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "hi")
	assert.ErrorContains(t, err, "no completion")
}

func TestSetModel(t *testing.T) {
	a := NewAnthropicClient("k")
	a.SetModel("custom")
	assert.Equal(t, "custom", a.GetModel())

	o := NewOpenAIClient("k")
	o.SetModel("custom")
	assert.Equal(t, "custom", o.GetModel())
}

func TestDetectProvider_Priority(t *testing.T) {
	for _, key := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
	}

	t.Run("no keys is an error", func(t *testing.T) {
		_, err := DetectProvider()
		assert.Error(t, err)
	})

	t.Run("anthropic outranks the rest", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "g")
		t.Setenv("ANTHROPIC_API_KEY", "a")

		cfg, err := DetectProvider()
		require.NoError(t, err)
		assert.Equal(t, ProviderAnthropic, cfg.Provider)
		assert.Equal(t, "a", cfg.APIKey)
	})
}
