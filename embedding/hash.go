package embedding

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/flarexio/ragdesk/vector"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// NewHashFunc returns a local bag-of-words embedder. Every lowercased token
// is hashed into one of dim-1 buckets; bucket 0 carries a constant bias so
// that texts without tokens still map to a valid unit vector. Texts sharing
// tokens share vector components, which makes it usable offline and in
// tests, though it carries no real semantics.
func NewHashFunc(dim int) vector.EmbeddingFunc {
	if dim < 2 {
		dim = DefaultHashDimension
	}

	return func(ctx context.Context, text string) ([]float32, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		v := make([]float32, dim)
		v[0] = 0.1

		for _, token := range Tokenize(text) {
			h := fnv.New32a()
			h.Write([]byte(token))

			idx := 1 + int(h.Sum32()%uint32(dim-1))
			v[idx] += 1
		}

		l2normalize(v)
		return v, nil
	}
}

// Tokenize splits text into lowercased word tokens.
func Tokenize(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}
