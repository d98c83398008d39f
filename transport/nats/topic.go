package nats

import (
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/ragdesk"
)

func AddEndpoints(group micro.Group, endpoints *ragdesk.EndpointSet) {
	group.AddEndpoint("answer_query", AnswerQueryHandler(endpoints.AnswerQuery))
	group.AddEndpoint("retrieve", RetrieveHandler(endpoints.Retrieve))
	group.AddEndpoint("rebuild", RebuildHandler(endpoints.Rebuild))
	group.AddEndpoint("stats", StatsHandler(endpoints.Stats))
}
