// Package openai implements llm.Provider for any OpenAI-compatible chat
// completions API (OpenAI, Groq, Gemini's OpenAI endpoint).
package openai

import (
	"context"
	"errors"
	"math"
	"os"

	"github.com/sashabaranov/go-openai"

	"github.com/flarexio/ragdesk/llm"
)

const (
	BaseURLGroq   = "https://api.groq.com/openai/v1"
	BaseURLGemini = "https://generativelanguage.googleapis.com/v1beta/openai"

	DefaultTemperature = 0.3
)

var ErrNoChoices = errors.New("no completion choices returned")

// GroqConfig is the default primary provider.
func GroqConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Name:        "groq",
		BaseURL:     BaseURLGroq,
		Model:       "llama-3.3-70b-versatile",
		APIKeyEnv:   "GROQ_API_KEY",
	}
}

// GeminiConfig is the default secondary provider.
func GeminiConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Name:        "gemini",
		BaseURL:     BaseURLGemini,
		Model:       "gemini-2.5-pro",
		APIKeyEnv:   "GEMINI_API_KEY",
	}
}

// Ensure Provider implements the interface.
var _ llm.Provider = (*Provider)(nil)

type Provider struct {
	client      *openai.Client
	name        string
	model       string
	temperature float32
}

// NewProvider reads the API key from cfg.APIKeyEnv. A missing key yields
// llm.ErrProviderNotConfigured.
func NewProvider(cfg llm.ProviderConfig) (*Provider, error) {
	if cfg.Model == "" {
		return nil, errors.New("provider model is required")
	}

	key := os.Getenv(cfg.APIKeyEnv)
	if cfg.APIKeyEnv == "" || key == "" {
		return nil, llm.ErrProviderNotConfigured
	}

	config := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return NewProviderWithConfig(cfg, config), nil
}

func NewProviderWithConfig(cfg llm.ProviderConfig, config openai.ClientConfig) *Provider {
	name := cfg.Name
	if name == "" {
		name = cfg.Model
	}

	// An unset temperature means DefaultTemperature. go-openai omits a zero
	// temperature from the request, so an explicit 0 is sent as the
	// smallest positive value instead.
	temperature := float32(DefaultTemperature)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return &Provider{
		client:      openai.NewClientWithConfig(config),
		name:        name,
		model:       cfg.Model,
		temperature: temperature,
	}
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: p.temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
