// Package llm produces answers from retrieved context through hosted LLM
// providers, falling back from a primary to a secondary provider.
package llm

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrEmptyCompletion       = errors.New("provider returned an empty completion")
)

// Provider is a hosted LLM able to complete a single prompt.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Timeout        time.Duration   `yaml:"timeout"`
	PromptTemplate string          `yaml:"promptTemplate"`
	Primary        *ProviderConfig `yaml:"primary"`
	Secondary      *ProviderConfig `yaml:"secondary"`
}

type ProviderConfig struct {
	Name        string  `yaml:"name"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature *float32 `yaml:"temperature"`
	APIKeyEnv   string  `yaml:"api_key_env"`
}

type Source string

const (
	SourcePrimary     Source = "primary"
	SourceSecondary   Source = "secondary"
	SourceUnavailable Source = "unavailable"
)

const UnavailableText = "No LLM available to generate a response."

// Answer is the outcome of one generation. An unavailable answer is a
// normal result, not an error.
type Answer struct {
	Text     string   `json:"text"`
	Source   Source   `json:"source"`
	Provider string   `json:"provider,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
}

func (a Answer) Available() bool {
	return a.Source == SourcePrimary || a.Source == SourceSecondary
}
