package nats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/ragdesk"
)

// MakeEndpoints returns client endpoints calling a remote ragdesk over NATS.
// Answering and rebuilding wait up to timeout; stats use the NATS default.
func MakeEndpoints(nc *nats.Conn, prefix string, timeout time.Duration) *ragdesk.EndpointSet {
	if timeout <= 0 {
		timeout = nats.DefaultTimeout
	}

	return &ragdesk.EndpointSet{
		AnswerQuery: AnswerQueryEndpoint(nc, prefix+".answer_query", timeout),
		Retrieve:    RetrieveEndpoint(nc, prefix+".retrieve", timeout),
		Rebuild:     StatsEndpoint(nc, prefix+".rebuild", timeout),
		Stats:       StatsEndpoint(nc, prefix+".stats", nats.DefaultTimeout),
	}
}

func AnswerQueryEndpoint(nc *nats.Conn, topic string, timeout time.Duration) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(ragdesk.AnswerQueryRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, timeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var result ragdesk.QueryResponse
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return nil, err
		}

		return result, nil
	}
}

func RetrieveEndpoint(nc *nats.Conn, topic string, timeout time.Duration) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(ragdesk.RetrieveRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, timeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var result ragdesk.RetrievalResult
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return nil, err
		}

		return result, nil
	}
}

func StatsEndpoint(nc *nats.Conn, topic string, timeout time.Duration) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		resp, err := nc.Request(topic, nil, timeout)
		if err != nil {
			return nil, err
		}

		if err := Error(resp); err != nil {
			return nil, err
		}

		var stats ragdesk.Stats
		if err := json.Unmarshal(resp.Data, &stats); err != nil {
			return nil, err
		}

		return stats, nil
	}
}

// Error decodes a micro service error reply. An empty query is reported as
// ragdesk.ErrEmptyQuery so callers can match it.
func Error(msg *nats.Msg) error {
	if msg == nil {
		return errors.New("nil message")
	}

	code := msg.Header.Get(micro.ErrorCodeHeader)
	if code == "" {
		return nil
	}

	description := msg.Header.Get(micro.ErrorHeader)
	if description == "" {
		description = "unknown error"
	}

	if code == "400" && description == ragdesk.ErrEmptyQuery.Error() {
		return ragdesk.ErrEmptyQuery
	}

	return errors.New(code + ":" + description)
}
