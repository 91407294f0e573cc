package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trueeth/cw20-reflection/internal/core/ledger/service"
)

// StreamTransfers carries one event per applied transfer, with the gross
// amount and every tax component.
const StreamTransfers = "transfers"

const (
	wsReadLimit    = 512 * 1024
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 54 * time.Second
	wsSendBuffer   = 64
)

// WebSocketServer upgrades HTTP connections, answers the same methods as
// the HTTP server through a shared registry, and pushes stream events to
// subscribers. It implements service.Publisher so the ledger service can
// hand it transfer events directly.
type WebSocketServer struct {
	upgrader websocket.Upgrader
	registry *MethodRegistry

	mu     sync.RWMutex
	conns  map[uint64]*wsConn
	nextID uint64
}

type wsConn struct {
	id     uint64
	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	streams map[string]bool
}

// NewWebSocketServer creates a hub answering methods from the given
// registry, normally the HTTP server's via Server.Registry(). A nil
// registry may be set later with SetRegistry, before serving traffic.
func NewWebSocketServer(registry *MethodRegistry) *WebSocketServer {
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		registry: registry,
		conns:    make(map[uint64]*wsConn),
	}
}

// SetRegistry installs the method registry. The hub is created before the
// HTTP server when it doubles as the service event publisher.
func (ws *WebSocketServer) SetRegistry(registry *MethodRegistry) {
	ws.registry = registry
}

func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &wsConn{
		conn:    conn,
		send:    make(chan []byte, wsSendBuffer),
		ctx:     ctx,
		cancel:  cancel,
		streams: make(map[string]bool),
	}

	ws.mu.Lock()
	ws.nextID++
	c.id = ws.nextID
	ws.conns[c.id] = c
	ws.mu.Unlock()

	go ws.writeLoop(c)
	go ws.readLoop(c)
}

func (ws *WebSocketServer) readLoop(c *wsConn) {
	defer ws.drop(c)

	c.conn.SetReadLimit(wsReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read failed: %v", err)
			}
			return
		}
		ws.handleMessage(c, message)
	}
}

func (ws *WebSocketServer) writeLoop(c *wsConn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}
}

// wsCommand is the client-to-server message shape.
type wsCommand struct {
	Command string          `json:"command"`
	ID      interface{}     `json:"id,omitempty"`
	Streams []string        `json:"streams,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// wsResponse is the server-to-client reply to a command. Stream events
// use wsEvent instead.
type wsResponse struct {
	Type   string      `json:"type"`
	ID     interface{} `json:"id,omitempty"`
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
	Error  *Error      `json:"error,omitempty"`
}

type wsEvent struct {
	Type   string      `json:"type"`
	Stream string      `json:"stream"`
	Event  interface{} `json:"event"`
}

func (ws *WebSocketServer) handleMessage(c *wsConn, message []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		ws.reply(c, wsResponse{
			Type: "response", Status: "error",
			Error: NewError(CodeParseError, "invalid JSON: "+err.Error()),
		})
		return
	}
	if cmd.Command == "" {
		ws.reply(c, wsResponse{
			Type: "response", ID: cmd.ID, Status: "error",
			Error: NewError(CodeInvalidRequest, "missing command"),
		})
		return
	}

	switch cmd.Command {
	case "subscribe":
		ws.subscribe(c, cmd, true)
	case "unsubscribe":
		ws.subscribe(c, cmd, false)
	default:
		ws.callMethod(c, cmd)
	}
}

func (ws *WebSocketServer) subscribe(c *wsConn, cmd wsCommand, on bool) {
	if len(cmd.Streams) == 0 {
		ws.reply(c, wsResponse{
			Type: "response", ID: cmd.ID, Status: "error",
			Error: invalidParams("missing streams"),
		})
		return
	}
	for _, stream := range cmd.Streams {
		if stream != StreamTransfers {
			ws.reply(c, wsResponse{
				Type: "response", ID: cmd.ID, Status: "error",
				Error: invalidParams(fmt.Sprintf("unknown stream %q", stream)),
			})
			return
		}
	}

	c.mu.Lock()
	for _, stream := range cmd.Streams {
		if on {
			c.streams[stream] = true
		} else {
			delete(c.streams, stream)
		}
	}
	c.mu.Unlock()

	result := map[string]interface{}{"streams": cmd.Streams}
	if on {
		result["subscribed"] = true
	} else {
		result["unsubscribed"] = true
	}
	ws.reply(c, wsResponse{Type: "response", ID: cmd.ID, Status: "success", Result: result})
}

func (ws *WebSocketServer) callMethod(c *wsConn, cmd wsCommand) {
	if ws.registry == nil {
		ws.reply(c, wsResponse{
			Type: "response", ID: cmd.ID, Status: "error",
			Error: NewError(CodeInternalError, "method registry not configured"),
		})
		return
	}
	handler, ok := ws.registry.Get(cmd.Command)
	if !ok {
		ws.reply(c, wsResponse{
			Type: "response", ID: cmd.ID, Status: "error",
			Error: NewError(CodeMethodNotFound, "unknown method: "+cmd.Command),
		})
		return
	}

	result, rpcErr := handler.Handle(c.ctx, cmd.Params)
	if rpcErr != nil {
		ws.reply(c, wsResponse{Type: "response", ID: cmd.ID, Status: "error", Error: rpcErr})
		return
	}
	ws.reply(c, wsResponse{Type: "response", ID: cmd.ID, Status: "success", Result: result})
}

func (ws *WebSocketServer) reply(c *wsConn, resp wsResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("websocket marshal failed: %v", err)
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	default:
		// Slow consumer, drop the connection rather than block the hub.
		ws.drop(c)
	}
}

// PublishTransfer broadcasts a transfer event to every connection
// subscribed to the transfers stream. Implements service.Publisher.
func (ws *WebSocketServer) PublishTransfer(event service.TransferEvent) {
	data, err := json.Marshal(wsEvent{Type: "event", Stream: StreamTransfers, Event: event})
	if err != nil {
		log.Printf("websocket marshal failed: %v", err)
		return
	}

	ws.mu.RLock()
	defer ws.mu.RUnlock()
	for _, c := range ws.conns {
		c.mu.RLock()
		subscribed := c.streams[StreamTransfers]
		c.mu.RUnlock()
		if !subscribed {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Skip slow consumers, the stream is best effort.
		}
	}
}

// ConnCount reports the number of live connections.
func (ws *WebSocketServer) ConnCount() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.conns)
}

// Close drops every connection.
func (ws *WebSocketServer) Close() {
	ws.mu.Lock()
	conns := make([]*wsConn, 0, len(ws.conns))
	for _, c := range ws.conns {
		conns = append(conns, c)
	}
	ws.mu.Unlock()

	for _, c := range conns {
		ws.drop(c)
	}
}

func (ws *WebSocketServer) drop(c *wsConn) {
	c.cancel()

	ws.mu.Lock()
	delete(ws.conns, c.id)
	ws.mu.Unlock()

	c.conn.Close()
}
