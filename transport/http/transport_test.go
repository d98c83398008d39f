package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/flarexio/ragdesk"
	"github.com/flarexio/ragdesk/llm"

	mcpE "github.com/flarexio/ragdesk/mcp"
)

type stubService struct {
	k int
}

func (s *stubService) Close() error { return nil }

func (s *stubService) Rebuild(ctx context.Context) (ragdesk.Stats, error) {
	return ragdesk.Stats{}, errors.New("embedding service unavailable")
}

func (s *stubService) Retrieve(ctx context.Context, query string, k ...int) (ragdesk.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return ragdesk.RetrievalResult{}, ragdesk.ErrEmptyQuery
	}

	if len(k) > 0 {
		s.k = k[0]
	}

	return ragdesk.RetrievalResult{
		Query: query,
		Chunks: []ragdesk.ScoredChunk{
			{ChunkRecord: ragdesk.ChunkRecord{Content: "Lower the brightness.", SourceID: "battery.docx"}, Score: 0.8},
		},
	}, nil
}

func (s *stubService) AnswerQuery(ctx context.Context, query string) (ragdesk.QueryResponse, error) {
	retrieved, err := s.Retrieve(ctx, query)
	if err != nil {
		return ragdesk.QueryResponse{}, err
	}

	return ragdesk.QueryResponse{
		Retrieved: retrieved,
		Answer:    ragdesk.Answer{Text: "Lower the brightness.", Source: llm.SourceSecondary, Provider: "gemini"},
	}, nil
}

func (s *stubService) Stats(ctx context.Context) (ragdesk.Stats, error) {
	return ragdesk.Stats{Ready: true, Collection: "dell_kb-abc-1", Chunks: 8}, nil
}

func newTestRouter(svc ragdesk.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	AddRouters(r, ragdesk.MakeEndpoints(svc))
	AddStreamableRouters(r, mcpE.MakeEndpoints(svc))

	return r
}

func serve(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestAnswerQueryHandler(t *testing.T) {
	assert := assert.New(t)

	r := newTestRouter(&stubService{})

	w := serve(r, http.MethodPost, "/api/query", `{"query": "battery draining fast"}`)
	if !assert.Equal(http.StatusOK, w.Code) {
		return
	}

	var resp ragdesk.QueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("battery draining fast", resp.Retrieved.Query)
	assert.Equal(llm.SourceSecondary, resp.Answer.Source)

	w = serve(r, http.MethodPost, "/api/query", `{"query": "  "}`)
	assert.Equal(http.StatusBadRequest, w.Code)
	assert.Equal(ragdesk.ErrEmptyQuery.Error(), w.Body.String())
}

func TestRetrieveHandler(t *testing.T) {
	assert := assert.New(t)

	svc := &stubService{}
	r := newTestRouter(svc)

	w := serve(r, http.MethodGet, "/api/retrieve?query=battery&k=3", "")
	if !assert.Equal(http.StatusOK, w.Code) {
		return
	}

	var result ragdesk.RetrievalResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(3, svc.k)
	assert.Len(result.Chunks, 1)
	assert.Equal("battery.docx", result.Chunks[0].SourceID)

	w = serve(r, http.MethodGet, "/api/retrieve?query=battery&k=many", "")
	assert.Equal(http.StatusBadRequest, w.Code)
}

func TestRebuildAndStatsHandlers(t *testing.T) {
	assert := assert.New(t)

	r := newTestRouter(&stubService{})

	w := serve(r, http.MethodPost, "/api/rebuild", "")
	assert.Equal(http.StatusExpectationFailed, w.Code)
	assert.Contains(w.Body.String(), "embedding service unavailable")

	w = serve(r, http.MethodGet, "/api/stats", "")
	if !assert.Equal(http.StatusOK, w.Code) {
		return
	}

	var stats ragdesk.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.True(stats.Ready)
	assert.Equal(8, stats.Chunks)
}

func TestMetricsRoute(t *testing.T) {
	assert := assert.New(t)

	r := newTestRouter(&stubService{})

	w := serve(r, http.MethodGet, "/metrics", "")
	assert.Equal(http.StatusOK, w.Code)
	assert.Contains(w.Body.String(), "go_goroutines")
}

func TestMCPStreamableHandler(t *testing.T) {
	assert := assert.New(t)

	r := newTestRouter(&stubService{})

	w := serve(r, http.MethodPost, "/mcp/", `{"jsonrpc": "2.0", "id": 1, "method": "tools/list"}`)
	assert.Equal(http.StatusOK, w.Code)
	assert.Contains(w.Body.String(), mcpE.ToolSearchKnowledgeBase)

	w = serve(r, http.MethodPost, "/mcp/", `{"jsonrpc": "2.0", "method": "notifications/initialized"}`)
	assert.Equal(http.StatusAccepted, w.Code)

	w = serve(r, http.MethodPost, "/mcp/", `{"jsonrpc": "2.0", "id": 2, "method": "resources/list"}`)
	assert.Equal(http.StatusNotFound, w.Code)
	assert.Contains(w.Body.String(), "method not found")
}
