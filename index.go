package ragdesk

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flarexio/ragdesk/corpus"
	"github.com/flarexio/ragdesk/vector"
)

type IndexConfig struct {
	// Collection is the base name; each build creates the collection
	// <Collection>-<fingerprint>-<generation>-<records>.
	Collection  string
	ModelID     string
	Concurrency int
}

// Generation is one complete, immutable build of the knowledge base.
type Generation struct {
	Collection  vector.Collection
	Fingerprint string
	BuiltAt     time.Time
}

func (g *Generation) Stats() Stats {
	return Stats{
		Ready:       true,
		Collection:  g.Collection.Name(),
		Fingerprint: g.Fingerprint,
		Chunks:      g.Collection.Count(),
		BuiltAt:     g.BuiltAt,
	}
}

// Index builds and queries knowledge base collections. The fingerprint in a
// collection name covers the embedding model, the chunking strategy and the
// document contents, so a collection is only reused for an unchanged corpus.
type Index struct {
	db      vector.VectorDB
	embed   vector.EmbeddingFunc
	builder *corpus.Builder
	cfg     IndexConfig
	log     *zap.Logger
}

func NewIndex(db vector.VectorDB, embed vector.EmbeddingFunc, builder *corpus.Builder, cfg IndexConfig) *Index {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	if cfg.Concurrency < 1 {
		cfg.Concurrency = runtime.NumCPU()
	}

	log := zap.L().With(
		zap.String("service", "index"),
		zap.String("collection", cfg.Collection),
	)

	return &Index{
		db:      db,
		embed:   embed,
		builder: builder,
		cfg:     cfg,
		log:     log,
	}
}

// Fingerprint identifies the current state of the documents in dir.
func (idx *Index) Fingerprint(dir string) (string, error) {
	return idx.builder.Fingerprint(dir, idx.cfg.ModelID)
}

// Build embeds records into a fresh collection called name, using the
// position of each record as its id. Either every record is committed or
// the collection is removed.
func (idx *Index) Build(ctx context.Context, name string, records []ChunkRecord) (vector.Collection, error) {
	log := idx.log.With(
		zap.String("action", "build"),
		zap.String("name", name),
		zap.Int("records", len(records)),
	)

	if len(records) == 0 {
		return nil, ErrEmptyCorpus
	}

	docs := make([]vector.Document, len(records))
	for i, record := range records {
		docs[i] = RecordToDocument(record, i)
	}

	c, err := idx.db.CreateCollection(name, idx.embed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexBuild, err)
	}

	if err := c.AddDocuments(ctx, docs, idx.cfg.Concurrency); err != nil {
		if err := idx.db.DeleteCollection(name); err != nil {
			log.Error(err.Error())
		}

		return nil, fmt.Errorf("%w: %w", ErrIndexBuild, err)
	}

	log.Info("collection built")
	return c, nil
}

// LoadOrBuild opens the newest collection matching the current documents
// of dir, building one when none exists.
func (idx *Index) LoadOrBuild(ctx context.Context, dir string) (*Generation, error) {
	log := idx.log.With(
		zap.String("action", "load_or_build"),
		zap.String("dir", dir),
	)

	fingerprint, err := idx.Fingerprint(dir)
	if err != nil {
		return nil, err
	}

	if g := idx.latest(fingerprint); g != nil {
		log.Info("collection loaded",
			zap.String("name", g.Collection.Name()),
			zap.Int("count", g.Collection.Count()),
		)

		return g, nil
	}

	log.Info("collection not found", zap.String("fingerprint", fingerprint))

	return idx.build(ctx, dir, fingerprint)
}

// Rebuild always builds a new generation from dir.
func (idx *Index) Rebuild(ctx context.Context, dir string) (*Generation, error) {
	fingerprint, err := idx.Fingerprint(dir)
	if err != nil {
		return nil, err
	}

	return idx.build(ctx, dir, fingerprint)
}

// Query returns the k chunks most similar to text. An empty collection
// yields an empty result.
func (idx *Index) Query(ctx context.Context, c vector.Collection, text string, k int) (RetrievalResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	result := RetrievalResult{
		Query:  text,
		Chunks: make([]ScoredChunk, 0, k),
	}

	docs, err := c.Query(ctx, text, k)
	if err != nil {
		return result, err
	}

	for _, doc := range docs {
		chunk, err := DocumentToScoredChunk(doc)
		if err != nil {
			return result, err
		}

		result.Chunks = append(result.Chunks, chunk)
	}

	return result, nil
}

func (idx *Index) build(ctx context.Context, dir string, fingerprint string) (*Generation, error) {
	records, err := idx.builder.Build(ctx, dir)
	if err != nil {
		return nil, err
	}

	builtAt := time.Now()
	name := idx.prefix(fingerprint) +
		strconv.FormatInt(builtAt.UnixNano(), 10) + "-" + strconv.Itoa(len(records))

	c, err := idx.Build(ctx, name, records)
	if err != nil {
		return nil, err
	}

	idx.prune(name)

	return &Generation{
		Collection:  c,
		Fingerprint: fingerprint,
		BuiltAt:     builtAt,
	}, nil
}

func (idx *Index) prefix(fingerprint string) string {
	return idx.cfg.Collection + "-" + fingerprint + "-"
}

// latest returns the newest complete generation for fingerprint. A
// generation is complete when its collection holds as many documents as its
// name promises; an interrupted build leaves fewer and is skipped until the
// next build prunes it.
func (idx *Index) latest(fingerprint string) *Generation {
	log := idx.log.With(
		zap.String("action", "latest"),
		zap.String("fingerprint", fingerprint),
	)

	var latest *Generation
	for _, name := range idx.db.ListCollections() {
		stamp, records, ok := idx.parseName(name, fingerprint)
		if !ok {
			continue
		}

		if latest != nil && stamp <= latest.BuiltAt.UnixNano() {
			continue
		}

		c, err := idx.db.GetCollection(name, idx.embed)
		if err != nil {
			continue
		}

		if count := c.Count(); count != records {
			log.Warn("incomplete collection skipped",
				zap.String("name", name),
				zap.Int("count", count),
				zap.Int("records", records),
			)

			continue
		}

		latest = &Generation{
			Collection:  c,
			Fingerprint: fingerprint,
			BuiltAt:     time.Unix(0, stamp),
		}
	}

	return latest
}

// parseName splits a generation name of fingerprint into its build time and
// record count.
func (idx *Index) parseName(name, fingerprint string) (stamp int64, records int, ok bool) {
	suffix, ok := strings.CutPrefix(name, idx.prefix(fingerprint))
	if !ok {
		return 0, 0, false
	}

	before, after, ok := strings.Cut(suffix, "-")
	if !ok {
		return 0, 0, false
	}

	stamp, err := strconv.ParseInt(before, 10, 64)
	if err != nil {
		return 0, 0, false
	}

	records, err = strconv.Atoi(after)
	if err != nil || records <= 0 {
		return 0, 0, false
	}

	return stamp, records, true
}

// prune deletes every generation of the base collection except keep.
func (idx *Index) prune(keep string) {
	log := idx.log.With(
		zap.String("action", "prune"),
	)

	for _, name := range idx.db.ListCollections() {
		if name == keep || !strings.HasPrefix(name, idx.cfg.Collection+"-") {
			continue
		}

		if err := idx.db.DeleteCollection(name); err != nil {
			log.Error(err.Error(), zap.String("name", name))
			continue
		}

		log.Info("stale collection deleted", zap.String("name", name))
	}
}
