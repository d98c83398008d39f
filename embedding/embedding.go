// Package embedding builds the embedding functions used to index and query
// the knowledge base collections.
package embedding

import (
	"context"
	"errors"
	"math"
	"os"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/sashabaranov/go-openai"

	"github.com/flarexio/ragdesk/vector"
)

const (
	ProviderOllama       = "ollama"
	ProviderOpenAI       = "openai"
	ProviderOpenAICompat = "openai-compat"
	ProviderHash         = "hash"
)

const (
	DefaultOllamaModel   = "all-minilm"
	DefaultOpenAIModel   = string(openai.SmallEmbedding3)
	DefaultHashDimension = 512
)

var (
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	ErrMissingAPIKey       = errors.New("missing embedding API key")
	ErrEmptyEmbedding      = errors.New("empty embedding returned")
)

// NewFunc returns the embedding function described by cfg. Every returned
// function yields unit-length vectors.
func NewFunc(cfg vector.EmbeddingConfig) (vector.EmbeddingFunc, error) {
	cfg = withDefaults(cfg)

	switch cfg.Provider {
	case ProviderOllama:
		fn := chromem.NewEmbeddingFuncOllama(cfg.Model, cfg.BaseURL)
		return Normalized(vector.EmbeddingFunc(fn)), nil

	case ProviderOpenAI:
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, ErrMissingAPIKey
		}

		config := openai.DefaultConfig(key)
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		}

		client := openai.NewClientWithConfig(config)
		return NewOpenAIFunc(client, cfg.Model), nil

	case ProviderOpenAICompat:
		key := os.Getenv(cfg.APIKeyEnv)
		fn := chromem.NewEmbeddingFuncOpenAICompat(cfg.BaseURL, key, cfg.Model, nil)
		return Normalized(vector.EmbeddingFunc(fn)), nil

	case ProviderHash:
		return NewHashFunc(cfg.Dimension), nil

	default:
		return nil, ErrUnsupportedProvider
	}
}

// ModelID identifies the embedding model; collections built with different
// model IDs are never mixed.
func ModelID(cfg vector.EmbeddingConfig) string {
	cfg = withDefaults(cfg)

	if cfg.Provider == ProviderHash {
		return cfg.Provider + ":" + strconv.Itoa(cfg.Dimension)
	}

	return cfg.Provider + ":" + cfg.Model
}

func withDefaults(cfg vector.EmbeddingConfig) vector.EmbeddingConfig {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOllama
	}

	switch cfg.Provider {
	case ProviderOllama:
		if cfg.Model == "" {
			cfg.Model = DefaultOllamaModel
		}

	case ProviderOpenAI, ProviderOpenAICompat:
		if cfg.Model == "" {
			cfg.Model = DefaultOpenAIModel
		}
		if cfg.APIKeyEnv == "" {
			cfg.APIKeyEnv = "OPENAI_API_KEY"
		}

	case ProviderHash:
		if cfg.Dimension <= 0 {
			cfg.Dimension = DefaultHashDimension
		}
	}

	return cfg
}

// Normalized wraps fn so that its vectors are scaled to unit length.
func Normalized(fn vector.EmbeddingFunc) vector.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		v, err := fn(ctx, text)
		if err != nil {
			return nil, err
		}

		if len(v) == 0 {
			return nil, ErrEmptyEmbedding
		}

		l2normalize(v)
		return v, nil
	}
}

func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
