package ragdesk

import (
	"context"

	"go.uber.org/zap"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "ragdesk"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Close() error {
	log := mw.log.With(
		zap.String("action", "close"),
	)

	err := mw.next.Close()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service closed")
	return nil
}

func (mw *loggingMiddleware) Rebuild(ctx context.Context) (Stats, error) {
	log := mw.log.With(
		zap.String("action", "rebuild"),
	)

	stats, err := mw.next.Rebuild(ctx)
	if err != nil {
		log.Error(err.Error())
		return stats, err
	}

	log.Info("index rebuilt",
		zap.String("collection", stats.Collection),
		zap.Int("chunks", stats.Chunks),
	)

	return stats, nil
}

func (mw *loggingMiddleware) Retrieve(ctx context.Context, query string, k ...int) (RetrievalResult, error) {
	var n int
	if len(k) > 0 {
		n = k[0]
	}

	log := mw.log.With(
		zap.String("action", "retrieve"),
		zap.String("query", query),
	)

	if n > 0 {
		log = log.With(
			zap.Int("k", n),
		)
	}

	result, err := mw.next.Retrieve(ctx, query, k...)
	if err != nil {
		log.Error(err.Error())
		return result, err
	}

	log.Info("chunks retrieved", zap.Int("count", len(result.Chunks)))
	return result, nil
}

func (mw *loggingMiddleware) AnswerQuery(ctx context.Context, query string) (QueryResponse, error) {
	log := mw.log.With(
		zap.String("action", "answer_query"),
		zap.String("query", query),
	)

	resp, err := mw.next.AnswerQuery(ctx, query)
	if err != nil {
		log.Error(err.Error())
		return resp, err
	}

	if resp.NoResults() {
		log.Warn("no results")
		return resp, nil
	}

	log.Info("query answered",
		zap.Int("chunks", len(resp.Retrieved.Chunks)),
		zap.String("source", string(resp.Answer.Source)),
		zap.String("provider", resp.Answer.Provider),
	)

	return resp, nil
}

func (mw *loggingMiddleware) Stats(ctx context.Context) (Stats, error) {
	log := mw.log.With(
		zap.String("action", "stats"),
	)

	stats, err := mw.next.Stats(ctx)
	if err != nil {
		log.Error(err.Error())
		return stats, err
	}

	log.Debug("stats read", zap.Bool("ready", stats.Ready))
	return stats, nil
}
