package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

var ErrEndpointExists = errors.New("endpoint already exists")

// StdioServer serves newline-delimited JSON-RPC requests from r, writing
// one response line per request to w. Notifications get no response.
type StdioServer interface {
	AddEndpoint(method mcp.MCPMethod, endpoint MCPEndpoint) error
	Listen(ctx context.Context) error
}

func NewStdioServer(r io.Reader, w io.Writer) StdioServer {
	return &stdioServer{
		endpoints: make(map[mcp.MCPMethod]MCPEndpoint),
		r:         r,
		w:         w,
	}
}

type stdioServer struct {
	endpoints map[mcp.MCPMethod]MCPEndpoint
	r         io.Reader
	w         io.Writer
	mu        sync.Mutex
}

func (s *stdioServer) AddEndpoint(method mcp.MCPMethod, endpoint MCPEndpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.endpoints[method]
	if ok {
		return ErrEndpointExists
	}

	s.endpoints[method] = endpoint
	return nil
}

func (s *stdioServer) Listen(ctx context.Context) error {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lines := make(chan string)
	errs := make(chan error, 1)

	go func(ctx context.Context, lines chan<- string, errs chan<- error) {
		defer close(lines)

		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			errs <- err
		}
	}(ctx, lines, errs)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errs:
			if errors.Is(err, io.EOF) {
				return nil
			}

			return err

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errs:
					return err
				default:
					return nil
				}
			}

			if line == "" {
				continue
			}

			var req JSONRPCRequest
			if err := json.Unmarshal([]byte(line), &req); err != nil {
				s.write(errorResponse(mcp.NewRequestId(nil), mcp.PARSE_ERROR, err.Error()))
				continue
			}

			if req.ID.IsNil() {
				continue
			}

			s.mu.Lock()
			endpoint, ok := s.endpoints[req.Method]
			s.mu.Unlock()

			var resp mcp.JSONRPCMessage
			if ok {
				resp = endpoint(ctx, req)
			} else {
				resp = errorResponse(req.ID, mcp.METHOD_NOT_FOUND, "method not found")
			}

			s.write(resp)
		}
	}
}

func (s *stdioServer) write(resp mcp.JSONRPCMessage) {
	bs, err := json.Marshal(resp)
	if err != nil {
		return
	}

	fmt.Fprintf(s.w, "%s\n", bs)
}
