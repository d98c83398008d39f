package ragdesk

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/flarexio/ragdesk/llm"
)

// Service defines the core logic of ragdesk.
type Service interface {

	// Close stops background work of the service.
	Close() error

	// Rebuild builds a new generation of the index from the corpus and
	// switches queries to it once complete.
	Rebuild(ctx context.Context) (Stats, error)

	// Retrieve returns the chunks most similar to query.
	Retrieve(ctx context.Context, query string, k ...int) (RetrievalResult, error)

	// AnswerQuery retrieves context for query and generates an answer. Only
	// ErrEmptyQuery is returned; other failures degrade the response.
	AnswerQuery(ctx context.Context, query string) (QueryResponse, error)

	// Stats describes the index currently serving queries.
	Stats(ctx context.Context) (Stats, error)
}

type ServiceMiddleware func(Service) Service

type ServiceOption func(*service)

// WithLazyLoad defers loading or building the index until the first query
// or rebuild.
func WithLazyLoad() ServiceOption {
	return func(svc *service) {
		svc.lazy = true
	}
}

func NewService(ctx context.Context, cfg Config, index *Index, generator *llm.Generator, opts ...ServiceOption) (Service, error) {
	log := zap.L().With(
		zap.String("service", "ragdesk"),
	)

	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}

	ctx, cancel := context.WithCancel(ctx)

	svc := &service{
		index:     index,
		generator: generator,

		cfg:    cfg,
		log:    log,
		cancel: cancel,
	}

	for _, opt := range opts {
		opt(svc)
	}

	if !svc.lazy {
		if _, err := svc.load(ctx); err != nil {
			log.Error(err.Error())
		}
	}

	if interval := cfg.Corpus.RefreshInterval.Duration(); interval > 0 {
		go svc.refreshMonitor(ctx, interval)
	}

	return svc, nil
}

type service struct {
	index     *Index
	generator *llm.Generator

	// Generation serving queries; replaced only under buildMutex
	current    atomic.Pointer[Generation]
	buildMutex sync.Mutex

	cfg       Config
	lazy      bool
	log       *zap.Logger
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (svc *service) Close() error {
	svc.closeOnce.Do(svc.cancel)
	return nil
}

// load returns the current generation, loading or building one if the
// service has none yet.
func (svc *service) load(ctx context.Context) (*Generation, error) {
	if g := svc.current.Load(); g != nil {
		return g, nil
	}

	svc.buildMutex.Lock()
	defer svc.buildMutex.Unlock()

	if g := svc.current.Load(); g != nil {
		return g, nil
	}

	g, err := svc.index.LoadOrBuild(ctx, svc.cfg.Corpus.Dir)
	if err != nil {
		return nil, err
	}

	svc.current.Store(g)
	return g, nil
}

func (svc *service) Rebuild(ctx context.Context) (Stats, error) {
	svc.buildMutex.Lock()
	defer svc.buildMutex.Unlock()

	g, err := svc.index.Rebuild(ctx, svc.cfg.Corpus.Dir)
	if err != nil {
		return Stats{}, err
	}

	svc.current.Store(g)
	return g.Stats(), nil
}

func (svc *service) Retrieve(ctx context.Context, query string, k ...int) (RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return RetrievalResult{}, ErrEmptyQuery
	}

	n := svc.cfg.TopK
	if len(k) > 0 && k[0] > 0 {
		n = k[0]
	}

	g, err := svc.load(ctx)
	if err != nil {
		return RetrievalResult{Query: query}, err
	}

	return svc.index.Query(ctx, g.Collection, query, n)
}

func (svc *service) AnswerQuery(ctx context.Context, query string) (QueryResponse, error) {
	log := svc.log.With(
		zap.String("action", "answer_query"),
	)

	query = strings.TrimSpace(query)
	if query == "" {
		return QueryResponse{}, ErrEmptyQuery
	}

	retrieved, err := svc.Retrieve(ctx, query)
	if err != nil {
		log.Error(err.Error())

		retrieved = RetrievalResult{
			Query:  query,
			Chunks: []ScoredChunk{},
		}
	}

	if retrieved.Empty() {
		answer := Answer{
			Text:   NoResultsText,
			Source: llm.SourceUnavailable,
		}

		if err != nil {
			answer.Reasons = []string{err.Error()}
		}

		return QueryResponse{Retrieved: retrieved, Answer: answer}, nil
	}

	answer := svc.generator.Generate(ctx, query, retrieved.Contents())

	return QueryResponse{Retrieved: retrieved, Answer: answer}, nil
}

func (svc *service) Stats(ctx context.Context) (Stats, error) {
	g := svc.current.Load()
	if g == nil {
		return Stats{Ready: false}, nil
	}

	return g.Stats(), nil
}

// refreshMonitor rebuilds the index whenever the corpus fingerprint no
// longer matches the generation serving queries.
func (svc *service) refreshMonitor(ctx context.Context, interval time.Duration) {
	log := svc.log.With(
		zap.String("action", "refresh_monitor"),
		zap.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("done")
			return

		case <-ticker.C:
			fingerprint, err := svc.index.Fingerprint(svc.cfg.Corpus.Dir)
			if err != nil {
				log.Error(err.Error())
				continue
			}

			if g := svc.current.Load(); g != nil && g.Fingerprint == fingerprint {
				continue
			}

			log.Info("corpus changed", zap.String("fingerprint", fingerprint))

			stats, err := svc.Rebuild(ctx)
			if err != nil {
				log.Error(err.Error())
				continue
			}

			log.Info("index refreshed",
				zap.String("collection", stats.Collection),
				zap.Int("chunks", stats.Chunks),
			)
		}
	}
}
