package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"github.com/flarexio/ragdesk/llm"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Provider {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = srv.URL

	cfg := llm.ProviderConfig{
		Name:  "groq",
		Model: "llama-3.3-70b-versatile",
	}

	return NewProviderWithConfig(cfg, config)
}

func TestComplete(t *testing.T) {
	assert := assert.New(t)

	var req openai.ChatCompletionRequest

	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/chat/completions", r.URL.Path)
		assert.Equal("Bearer test-key", r.Header.Get("Authorization"))

		json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "llama-3.3-70b-versatile",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "Reset the adapter."},
				"finish_reason": "stop"
			}]
		}`))
	})

	text, err := p.Complete(context.Background(), "prompt text")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("Reset the adapter.", text)
	assert.Equal("llama-3.3-70b-versatile", req.Model)
	assert.InDelta(DefaultTemperature, req.Temperature, 1e-6)
	if assert.Len(req.Messages, 1) {
		assert.Equal(openai.ChatMessageRoleUser, req.Messages[0].Role)
		assert.Equal("prompt text", req.Messages[0].Content)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	assert := assert.New(t)

	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "chatcmpl-2", "choices": []}`))
	})

	_, err := p.Complete(context.Background(), "prompt")
	assert.ErrorIs(err, ErrNoChoices)
}

func TestCompleteServerError(t *testing.T) {
	assert := assert.New(t)

	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit reached", "type": "requests"}}`))
	})

	_, err := p.Complete(context.Background(), "prompt")
	if !assert.Error(err) {
		return
	}

	assert.Contains(err.Error(), "rate limit reached")
}

func TestNewProvider(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("RAGDESK_TEST_KEY", "")

	_, err := NewProvider(llm.ProviderConfig{
		Model:     "gemini-2.5-pro",
		APIKeyEnv: "RAGDESK_TEST_KEY",
	})
	assert.ErrorIs(err, llm.ErrProviderNotConfigured)

	t.Setenv("RAGDESK_TEST_KEY", "secret")

	temperature := float32(0.7)

	p, err := NewProvider(llm.ProviderConfig{
		BaseURL:     BaseURLGemini,
		Model:       "gemini-2.5-pro",
		Temperature: &temperature,
		APIKeyEnv:   "RAGDESK_TEST_KEY",
	})
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("gemini-2.5-pro", p.Name())
	assert.Equal("gemini-2.5-pro", p.Model())
	assert.InDelta(0.7, p.temperature, 1e-6)

	_, err = NewProvider(llm.ProviderConfig{APIKeyEnv: "RAGDESK_TEST_KEY"})
	assert.Error(err)
}

func TestDefaultConfigs(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("GROQ_API_KEY", "gsk")
	t.Setenv("GEMINI_API_KEY", "")

	p, err := NewProvider(GroqConfig())
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("groq", p.Name())

	_, err = NewProvider(GeminiConfig())
	assert.ErrorIs(err, llm.ErrProviderNotConfigured)

	t.Setenv("GEMINI_API_KEY", "aiza")

	p, err = NewProvider(GeminiConfig())
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("gemini", p.Name())
}

func TestTemperature(t *testing.T) {
	assert := assert.New(t)

	config := openai.DefaultConfig("test-key")

	p := NewProviderWithConfig(llm.ProviderConfig{Model: "llama-3.3-70b-versatile"}, config)
	assert.InDelta(DefaultTemperature, p.temperature, 1e-6)

	zero := float32(0)

	p = NewProviderWithConfig(llm.ProviderConfig{Model: "llama-3.3-70b-versatile", Temperature: &zero}, config)
	assert.Greater(p.temperature, float32(0))
	assert.InDelta(0, p.temperature, 1e-6)
}
