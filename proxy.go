package ragdesk

import (
	"context"
	"errors"
)

// ProxyMiddleware serves the Service through remote endpoints, such as a
// NATS client, ignoring the wrapped service.
func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func (mw *proxyMiddleware) Close() error {
	return errors.New("method not implemented")
}

func (mw *proxyMiddleware) Rebuild(ctx context.Context) (Stats, error) {
	resp, err := mw.endpoints.Rebuild(ctx, nil)
	if err != nil {
		return Stats{}, err
	}

	stats, ok := resp.(Stats)
	if !ok {
		return Stats{}, errors.New("invalid response type")
	}

	return stats, nil
}

func (mw *proxyMiddleware) Retrieve(ctx context.Context, query string, k ...int) (RetrievalResult, error) {
	n := 0
	if len(k) > 0 {
		n = k[0]
	}

	req := RetrieveRequest{
		Query: query,
		K:     n,
	}

	resp, err := mw.endpoints.Retrieve(ctx, req)
	if err != nil {
		return RetrievalResult{}, err
	}

	result, ok := resp.(RetrievalResult)
	if !ok {
		return RetrievalResult{}, errors.New("invalid response type")
	}

	return result, nil
}

func (mw *proxyMiddleware) AnswerQuery(ctx context.Context, query string) (QueryResponse, error) {
	req := AnswerQueryRequest{
		Query: query,
	}

	resp, err := mw.endpoints.AnswerQuery(ctx, req)
	if err != nil {
		return QueryResponse{}, err
	}

	result, ok := resp.(QueryResponse)
	if !ok {
		return QueryResponse{}, errors.New("invalid response type")
	}

	return result, nil
}

func (mw *proxyMiddleware) Stats(ctx context.Context) (Stats, error) {
	resp, err := mw.endpoints.Stats(ctx, nil)
	if err != nil {
		return Stats{}, err
	}

	stats, ok := resp.(Stats)
	if !ok {
		return Stats{}, errors.New("invalid response type")
	}

	return stats, nil
}
