package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/trueeth/cw20-reflection/internal/core/ledger/service"
)

// Server handles JSON-RPC 2.0 requests over HTTP POST.
type Server struct {
	registry *MethodRegistry
	timeout  time.Duration
}

// NewServer creates a server with every method bound to the ledger service.
func NewServer(svc *service.Service, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Server{
		registry: NewMethodRegistry(),
		timeout:  timeout,
	}
	registerMethods(s.registry, svc)
	return s
}

// Registry exposes the method registry, shared with the WebSocket hub.
func (s *Server) Registry() *MethodRegistry {
	return s.registry
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeResponse(w, Response{
			JsonRpc: "2.0",
			Error:   NewError(CodeInternalError, "failed to read request body"),
		})
		return
	}
	defer r.Body.Close()

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, Response{
			JsonRpc: "2.0",
			Error:   NewError(CodeParseError, "invalid JSON: "+err.Error()),
		})
		return
	}
	if req.Method == "" {
		writeResponse(w, Response{
			JsonRpc: "2.0",
			ID:      req.ID,
			Error:   NewError(CodeInvalidRequest, "missing method"),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	result, rpcErr := s.dispatch(ctx, req.Method, req.Params)
	writeResponse(w, Response{
		JsonRpc: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	})
}

func (s *Server) dispatch(ctx context.Context, method string, params json.RawMessage) (interface{}, *Error) {
	handler, ok := s.registry.Get(method)
	if !ok {
		return nil, NewError(CodeMethodNotFound, "unknown method: "+method)
	}
	return handler.Handle(ctx, params)
}

func writeResponse(w http.ResponseWriter, resp Response) {
	json.NewEncoder(w).Encode(resp)
}
