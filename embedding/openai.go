package embedding

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/flarexio/ragdesk/vector"
)

// NewOpenAIFunc creates embeddings through the OpenAI embeddings API.
func NewOpenAIFunc(client *openai.Client, model string) vector.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if len(text) == 0 {
			return nil, errors.New("cannot embed empty text")
		}

		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(model),
			Input: []string{text},
		})
		if err != nil {
			return nil, err
		}

		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, ErrEmptyEmbedding
		}

		v := make([]float32, len(resp.Data[0].Embedding))
		copy(v, resp.Data[0].Embedding)

		l2normalize(v)
		return v, nil
	}
}
