package vector

import (
	"context"
	"errors"
)

var ErrCollectionNotFound = errors.New("collection not found")

type Config struct {
	Persistent  bool            `yaml:"persistent"`
	Path        string          `yaml:"path"`
	Collection  string          `yaml:"collection"`
	Concurrency int             `yaml:"concurrency"`
	Embedding   EmbeddingConfig `yaml:"embedding"`
}

type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
}

// EmbeddingFunc turns a text into a fixed-length vector. The same function
// must be used to build a collection and to query it.
type EmbeddingFunc func(ctx context.Context, text string) ([]float32, error)

type VectorDB interface {
	CreateCollection(name string, embed EmbeddingFunc) (Collection, error)
	GetCollection(name string, embed EmbeddingFunc) (Collection, error)
	DeleteCollection(name string) error
	ListCollections() []string
}

type Collection interface {
	Name() string
	Count() int
	AddDocuments(ctx context.Context, docs []Document, concurrency int) error
	Query(ctx context.Context, query string, k int) ([]Document, error)
}

type Document struct {
	ID         string            `json:"id"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Content    string            `json:"content"`
	Embedding  []float32         `json:"embedding,omitempty"`
	Similarity float32           `json:"similarity,omitempty"`
}
