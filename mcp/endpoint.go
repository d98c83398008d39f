package mcp

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flarexio/ragdesk"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      mcp.RequestId   `json:"id"`
	Method  mcp.MCPMethod   `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func errorResponse(id mcp.RequestId, code int, message string) mcp.JSONRPCError {
	return mcp.JSONRPCError{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error: struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    any    `json:"data,omitempty"`
		}{
			Code:    code,
			Message: message,
		},
	}
}

type MCPEndpoint func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage

const (
	ToolSearchKnowledgeBase = "search_knowledge_base"
	ToolAnswerQuery         = "answer_query"
)

const MCPSERVER_INSTRUCTIONS string = `ragdesk answers technical support questions from an indexed knowledge base of product documentation.

Available tools:
- search_knowledge_base: Find the documentation passages most similar to a query
- answer_query: Answer a support question using the best matching passages

Passages carry the source document and chunk position they were taken from.`

var Tools = []mcp.Tool{
	mcp.NewTool(ToolSearchKnowledgeBase,
		mcp.WithDescription("Search the support knowledge base and return the most similar documentation passages."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language search query"),
		),
		mcp.WithNumber("k",
			mcp.Description("Number of passages to return"),
			mcp.Min(1),
		),
	),
	mcp.NewTool(ToolAnswerQuery,
		mcp.WithDescription("Answer a technical support question from the knowledge base."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The support question"),
		),
	),
}

// MakeEndpoints returns the MCP methods served by ragdesk.
func MakeEndpoints(svc ragdesk.Service) map[mcp.MCPMethod]MCPEndpoint {
	return map[mcp.MCPMethod]MCPEndpoint{
		mcp.MethodInitialize: InitializeEndpoint(svc),
		mcp.MethodPing:       PingEndpoint(svc),
		mcp.MethodToolsList:  ListToolsEndpoint(svc),
		mcp.MethodToolsCall:  CallToolEndpoint(svc),
	}
}

func InitializeEndpoint(svc ragdesk.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.InitializeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		protocolVersion := mcp.LATEST_PROTOCOL_VERSION
		if clientVersion := params.ProtocolVersion; clientVersion != "" {
			if slices.Contains(mcp.ValidProtocolVersions, clientVersion) {
				protocolVersion = clientVersion
			}
		}

		result := &mcp.InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: mcp.ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged,omitempty"`
				}{},
			},
			ServerInfo: mcp.Implementation{
				Name:    "ragdesk",
				Version: "1.0.0",
			},
			Instructions: MCPSERVER_INSTRUCTIONS,
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func PingEndpoint(svc ragdesk.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  struct{}{}, // empty response
		}
	}
}

func ListToolsEndpoint(svc ragdesk.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		result := &mcp.ListToolsResult{
			Tools: Tools,
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func CallToolEndpoint(svc ragdesk.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.CallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		callToolReq := mcp.CallToolRequest{
			Request: mcp.Request{
				Method: string(req.Method),
			},
			Params: params,
		}

		var result *mcp.CallToolResult

		switch params.Name {
		case ToolSearchKnowledgeBase:
			query := callToolReq.GetString("query", "")
			k := callToolReq.GetInt("k", 0)

			retrieved, err := svc.Retrieve(ctx, query, k)
			if err != nil {
				result = mcp.NewToolResultError(err.Error())
				break
			}

			result = jsonResult(retrieved)

		case ToolAnswerQuery:
			query := callToolReq.GetString("query", "")

			resp, err := svc.AnswerQuery(ctx, query)
			if err != nil {
				result = mcp.NewToolResultError(err.Error())
				break
			}

			result = jsonResult(resp)

		default:
			return errorResponse(req.ID, mcp.INVALID_PARAMS, "unknown tool: "+params.Name)
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	bs, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}

	return mcp.NewToolResultText(string(bs))
}
