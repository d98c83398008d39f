package ragdesk

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	AnswerQuery endpoint.Endpoint
	Retrieve    endpoint.Endpoint
	Rebuild     endpoint.Endpoint
	Stats       endpoint.Endpoint
}

func MakeEndpoints(svc Service) *EndpointSet {
	return &EndpointSet{
		AnswerQuery: AnswerQueryEndpoint(svc),
		Retrieve:    RetrieveEndpoint(svc),
		Rebuild:     RebuildEndpoint(svc),
		Stats:       StatsEndpoint(svc),
	}
}

type AnswerQueryRequest struct {
	Query string `json:"query" form:"query"`
}

func AnswerQueryEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(AnswerQueryRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.AnswerQuery(ctx, req.Query)
	}
}

type RetrieveRequest struct {
	Query string `json:"query" form:"query"`
	K     int    `json:"k,omitempty" form:"k"`
}

func RetrieveEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(RetrieveRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Retrieve(ctx, req.Query, req.K)
	}
}

func RebuildEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.Rebuild(ctx)
	}
}

func StatsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.Stats(ctx)
	}
}
