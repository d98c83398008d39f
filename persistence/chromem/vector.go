package chromem

import (
	"context"
	"sort"

	"github.com/philippgille/chromem-go"

	"github.com/flarexio/ragdesk/vector"
)

func NewChromemVectorDB(cfg vector.Config) (vector.VectorDB, error) {
	var db *chromem.DB
	if !cfg.Persistent {
		db = chromem.NewDB()
	} else {
		d, err := chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, err
		}

		db = d
	}

	return &chromemVectorDB{db}, nil
}

type chromemVectorDB struct {
	db *chromem.DB
}

func (v *chromemVectorDB) CreateCollection(name string, embed vector.EmbeddingFunc) (vector.Collection, error) {
	c, err := v.db.CreateCollection(name, nil, chromem.EmbeddingFunc(embed))
	if err != nil {
		return nil, err
	}

	return &collection{c}, nil
}

func (v *chromemVectorDB) GetCollection(name string, embed vector.EmbeddingFunc) (vector.Collection, error) {
	c := v.db.GetCollection(name, chromem.EmbeddingFunc(embed))
	if c == nil {
		return nil, vector.ErrCollectionNotFound
	}

	return &collection{c}, nil
}

func (v *chromemVectorDB) DeleteCollection(name string) error {
	return v.db.DeleteCollection(name)
}

func (v *chromemVectorDB) ListCollections() []string {
	collections := v.db.ListCollections()

	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

type collection struct {
	collection *chromem.Collection
}

func (c *collection) Name() string {
	return c.collection.Name
}

func (c *collection) Count() int {
	return c.collection.Count()
}

func (c *collection) AddDocuments(ctx context.Context, docs []vector.Document, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	documents := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		documents[i] = chromem.Document{
			ID:        doc.ID,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
			Content:   doc.Content,
		}
	}

	return c.collection.AddDocuments(ctx, documents, concurrency)
}

func (c *collection) Query(ctx context.Context, query string, k int) ([]vector.Document, error) {
	count := c.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}

	if k > count {
		k = count
	}

	results, err := c.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, err
	}

	docs := make([]vector.Document, len(results))
	for i, result := range results {
		docs[i] = vector.Document{
			ID:         result.ID,
			Metadata:   result.Metadata,
			Embedding:  result.Embedding,
			Content:    result.Content,
			Similarity: result.Similarity,
		}
	}

	return docs, nil
}
