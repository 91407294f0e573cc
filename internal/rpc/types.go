// Package rpc exposes the node over JSON-RPC 2.0 and a WebSocket event
// stream. Query methods read committed state through the ledger service;
// submit runs the full commit pipeline.
package rpc

import (
	"context"
	"encoding/json"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JsonRpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JsonRpc string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// NewError builds an error object.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func invalidParams(message string) *Error {
	return NewError(CodeInvalidParams, message)
}

func internalError(err error) *Error {
	return NewError(CodeInternalError, err.Error())
}

// Handler processes one RPC method call.
type Handler interface {
	Handle(ctx context.Context, params json.RawMessage) (interface{}, *Error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, *Error)

func (f HandlerFunc) Handle(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	return f(ctx, params)
}

// MethodRegistry maps method names to handlers.
type MethodRegistry struct {
	methods map[string]Handler
}

// NewMethodRegistry creates an empty registry.
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{methods: make(map[string]Handler)}
}

// Register binds a handler to a method name.
func (r *MethodRegistry) Register(name string, handler Handler) {
	r.methods[name] = handler
}

// Get looks up a handler.
func (r *MethodRegistry) Get(name string) (Handler, bool) {
	handler, ok := r.methods[name]
	return handler, ok
}

// List returns the registered method names.
func (r *MethodRegistry) List() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	return names
}
