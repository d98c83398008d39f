package http

import (
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flarexio/ragdesk"

	mcpE "github.com/flarexio/ragdesk/mcp"
)

func AddRouters(r *gin.Engine, endpoints *ragdesk.EndpointSet) {
	// RESTful API routes
	api := r.Group("/api")
	{
		api.POST("/query", AnswerQueryHandler(endpoints.AnswerQuery))
		api.GET("/retrieve", RetrieveHandler(endpoints.Retrieve))
		api.POST("/rebuild", RebuildHandler(endpoints.Rebuild))
		api.GET("/stats", StatsHandler(endpoints.Stats))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func AddStreamableRouters(r *gin.Engine, endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint) {
	mcp := r.Group("/mcp")
	{
		mcp.POST("/", MCPStreamableHandler(endpoints))
	}
}
