package wsserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// writeDeadline is the maximum time allowed for a single WebSocket write to
// complete. 5 seconds is generous for localhost single-client writes; if an
// observer freezes longer than this, the connection is considered dead.
const writeDeadline = 5 * time.Second

// readDeadline is the maximum time the server waits for any read activity
// (including pong responses) before considering the connection dead.
// 90 seconds allows for ~3 missed pings (pingInterval=30s) before timeout.
const readDeadline = 90 * time.Second

// pingInterval is the interval between server-initiated WebSocket pings.
const pingInterval = 30 * time.Second

// maxReadMessageSize limits the size of incoming WebSocket messages.
// Subscription JSON payloads are typically under 1 KiB; 32 KiB prevents OOM
// from malformed or oversized messages.
const maxReadMessageSize = 32 * 1024

// wsUpgrader is reused across upgrades; it is stateless and safe to share.
var wsUpgrader = websocket.Upgrader{
	// CheckOrigin allows all origins because the server binds to 127.0.0.1
	// only. Localhost-only binding prevents external access.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 8 * 1024,
}

// HubOptions configures the event-stream server.
type HubOptions struct {
	// Addr is the listen address. Use "127.0.0.1:0" for an OS-assigned port.
	// Binding to 127.0.0.1 restricts access to the local machine.
	Addr string
}

// Hub streams host events to a single WebSocket observer as JSON envelope
// frames. New connections replace existing ones so an observer restart
// reconnects cleanly.
//
// Lock ordering (never acquire in reverse):
//
//	writeMu -> mu
//
// mu protects connection state and the subscription set. writeMu serializes
// gorilla/websocket WriteMessage calls, which are not concurrency-safe.
//
// Write failure policy: any write failure disconnects the client via
// clearIfCurrent+closeConn; the client must reconnect.
type Hub struct {
	opts HubOptions

	// seq numbers every broadcast frame, including frames skipped for lack
	// of a connection, so an observer can detect missed events by gaps.
	seq atomic.Uint64

	// mu protects conn and subscribed. See lock ordering comment on Hub.
	mu         sync.RWMutex
	conn       *websocket.Conn
	subscribed map[string]bool // event name -> subscribed; SubscribeAll matches everything

	// writeMu serializes WriteMessage calls. Independent of mu: never hold
	// mu when acquiring writeMu (lock ordering).
	writeMu sync.Mutex

	listener net.Listener
	server   *http.Server
	url      string // "ws://127.0.0.1:<port>/events", set after Start

	// closeOnce ensures Stop is idempotent. A stopped Hub cannot be
	// reused; create a new instance instead.
	closeOnce sync.Once
}

const (
	subscribeAction   = "subscribe"
	unsubscribeAction = "unsubscribe"
)

// subscribeMsg is the JSON payload for client subscribe/unsubscribe
// requests. Action must be subscribeAction or unsubscribeAction; Events
// lists affected event names ("*" for all).
type subscribeMsg struct {
	Action string   `json:"action"`
	Events []string `json:"events"`
}

// errorMsg is the JSON payload for server error notifications.
type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewHub creates a Hub with the given options. The hub is not started until
// Start is called.
func NewHub(opts HubOptions) *Hub {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	return &Hub{
		opts:       opts,
		subscribed: make(map[string]bool),
	}
}

// Start begins listening on the configured address and serves WebSocket
// connections. The context is used for the server's BaseContext; the server
// itself must be stopped explicitly via Stop.
//
// Start must be called exactly once during application startup, before any
// concurrent access.
func (h *Hub) Start(ctx context.Context) error {
	if h.server != nil {
		return fmt.Errorf("wsserver: already started")
	}

	ln, err := net.Listen("tcp", h.opts.Addr)
	if err != nil {
		return fmt.Errorf("wsserver: listen: %w", err)
	}
	h.listener = ln

	port := ln.Addr().(*net.TCPAddr).Port
	h.url = fmt.Sprintf("ws://127.0.0.1:%d/events", port)

	mux := http.NewServeMux()
	mux.HandleFunc("/events", h.handleWS)

	h.server = &http.Server{
		Handler: mux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if serveErr := h.server.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("[events-ws] server error", "error", serveErr)
		}
	}()

	slog.Info("[events-ws] server started", "url", h.url)
	return nil
}

// Stop gracefully shuts down the HTTP server and closes any active
// WebSocket connection. Safe to call multiple times.
func (h *Hub) Stop() error {
	var stopErr error
	h.closeOnce.Do(func() {
		h.mu.Lock()
		conn := h.conn
		h.conn = nil
		h.subscribed = make(map[string]bool)
		h.mu.Unlock()

		if conn != nil {
			if err := conn.Close(); err != nil {
				slog.Debug("[events-ws] connection close during stop", "error", err)
			}
		}

		if h.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.server.Shutdown(shutdownCtx); err != nil {
				stopErr = fmt.Errorf("wsserver: shutdown: %w", err)
			}
		}

		slog.Info("[events-ws] server stopped")
	})
	return stopErr
}

// URL returns the WebSocket URL observers connect to
// (e.g. "ws://127.0.0.1:54321/events"). Empty before Start.
func (h *Hub) URL() string {
	return h.url
}

// HasActiveConnection reports whether an observer is currently connected.
func (h *Hub) HasActiveConnection() bool {
	h.mu.RLock()
	active := h.conn != nil
	h.mu.RUnlock()
	return active
}

// clearIfCurrent clears the hub's connection and subscription state only if
// the provided conn is still the current connection. Caller must NOT hold
// h.mu.
func (h *Hub) clearIfCurrent(conn *websocket.Conn) bool {
	h.mu.Lock()
	isCurrent := h.conn == conn
	if isCurrent {
		h.conn = nil
		h.subscribed = make(map[string]bool)
	}
	h.mu.Unlock()
	return isCurrent
}

// closeConn closes a WebSocket connection. The close may fail if another
// goroutine already closed it (reconnect replacing the old connection),
// which is expected and logged at Debug level.
func (h *Hub) closeConn(conn *websocket.Conn, reason string) {
	if closeErr := conn.Close(); closeErr != nil {
		slog.Debug("[events-ws] connection close", "reason", reason, "error", closeErr)
	}
}

// setWriteDeadlineOrClose sets a write deadline on the connection. If
// setting the deadline fails the connection is in an indeterminate state
// and must be closed to prevent indefinite blocking.
func (h *Hub) setWriteDeadlineOrClose(conn *websocket.Conn, d time.Duration) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(d)); err != nil {
		slog.Warn("[events-ws] SetWriteDeadline failed, closing connection", "error", err)
		h.clearIfCurrent(conn)
		h.closeConn(conn, "SetWriteDeadline failure")
		return false
	}
	return true
}

// clearWriteDeadline resets the write deadline after a successful write.
// Failure to clear is non-fatal: the next write sets a fresh deadline.
func (h *Hub) clearWriteDeadline(conn *websocket.Conn) {
	if err := conn.SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("[events-ws] clearWriteDeadline failed (non-fatal)", "error", err)
	}
}

// BroadcastEvent sends one event frame to the connected observer if it is
// subscribed to the event name. The sequence number advances regardless, so
// a reconnecting observer sees a gap for every event it missed.
//
// Thread-safe; callable from any goroutine.
func (h *Hub) BroadcastEvent(name string, payload any) {
	seq := h.seq.Add(1)

	h.mu.RLock()
	conn := h.conn
	wanted := h.subscribed[name] || h.subscribed[SubscribeAll]
	h.mu.RUnlock()

	// TOCTOU window: between RUnlock and writeMu.Lock the connection may be
	// replaced by a reconnect. A write on the stale conn fails and
	// clearIfCurrent's pointer check leaves the new connection intact, so
	// the worst case is one failed write.

	if conn == nil || !wanted {
		return
	}

	frame, encErr := EncodeEnvelope(seq, name, time.Now(), payload)
	if encErr != nil {
		slog.Warn("[events-ws] failed to encode event frame", "error", encErr, "event", name)
		return
	}

	h.writeMu.Lock()
	if !h.setWriteDeadlineOrClose(conn, writeDeadline) {
		h.writeMu.Unlock()
		return
	}
	err := conn.WriteMessage(websocket.TextMessage, frame)
	h.clearWriteDeadline(conn)
	h.writeMu.Unlock()

	if err != nil {
		slog.Warn("[events-ws] write failed, closing connection", "event", name, "error", err)
		h.clearIfCurrent(conn)
		h.closeConn(conn, "write error in BroadcastEvent")
	}
}

// handleWS upgrades HTTP to WebSocket and runs the read pump. Only one
// connection is active at a time; new connections replace old ones.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[events-ws] upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(maxReadMessageSize)

	// Read deadline plus pong handler for dead connection detection. The
	// deadline is extended on every pong received from the client.
	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		slog.Warn("[events-ws] SetReadDeadline failed on new connection", "error", err)
		h.closeConn(conn, "initial SetReadDeadline failure")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	// Replace any existing connection (observer restart scenario).
	h.mu.Lock()
	oldConn := h.conn
	h.conn = conn
	h.subscribed = make(map[string]bool)
	h.mu.Unlock()

	if oldConn != nil {
		h.closeConn(oldConn, "replaced by new connection")
	}

	slog.Info("[events-ws] observer connected", "remoteAddr", conn.RemoteAddr())

	pingDone := make(chan struct{})
	go h.pingLoop(conn, pingDone)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[events-ws] handleWS panic recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}

		close(pingDone)
		h.clearIfCurrent(conn)

		// conn.Close() may run more than once here if the connection was
		// already closed by BroadcastEvent or Stop; gorilla/websocket
		// tolerates that.
		h.closeConn(conn, "read pump exit")
		slog.Info("[events-ws] observer disconnected")
	}()

	for {
		msgType, msg, readErr := conn.ReadMessage()
		if readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("[events-ws] read error", "error", readErr)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var subMsg subscribeMsg
		if jsonErr := json.Unmarshal(msg, &subMsg); jsonErr != nil {
			slog.Debug("[events-ws] invalid JSON from observer", "error", jsonErr)
			h.sendError(conn, fmt.Sprintf("invalid JSON: %s", jsonErr))
			continue
		}
		h.handleSubscription(conn, subMsg)
	}
}

// pingLoop sends periodic WebSocket pings to detect dead connections. Runs
// as a goroutine per connection; exits when done is closed or a ping fails.
func (h *Hub) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	defer func() {
		// On panic, clean up the connection so it doesn't remain open
		// without pings, which would prevent dead connection detection.
		if rec := recover(); rec != nil {
			slog.Error("[events-ws] pingLoop panic recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			h.clearIfCurrent(conn)
			h.closeConn(conn, "pingLoop panic recovery")
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			h.writeMu.Lock()
			if !h.setWriteDeadlineOrClose(conn, writeDeadline) {
				h.writeMu.Unlock()
				return
			}
			pingErr := conn.WriteMessage(websocket.PingMessage, nil)
			h.clearWriteDeadline(conn)
			h.writeMu.Unlock()

			if pingErr != nil {
				slog.Debug("[events-ws] ping failed, connection likely dead", "error", pingErr)
				h.clearIfCurrent(conn)
				h.closeConn(conn, "ping failure")
				return
			}
		}
	}
}

// handleSubscription applies a subscribe or unsubscribe action to the
// connection's event-name subscription set.
func (h *Hub) handleSubscription(conn *websocket.Conn, msg subscribeMsg) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Only process subscriptions for the current connection. If a
	// reconnect replaced this connection, discard stale messages.
	if h.conn != conn {
		slog.Debug("[events-ws] subscription from stale connection, skipping")
		return
	}

	switch msg.Action {
	case subscribeAction:
		for _, name := range msg.Events {
			if name == "" {
				slog.Debug("[events-ws] empty event name in subscribe request, skipping")
				continue
			}
			h.subscribed[name] = true
			slog.Debug("[events-ws] subscribed", "event", name)
		}
	case unsubscribeAction:
		for _, name := range msg.Events {
			if name == "" {
				slog.Debug("[events-ws] empty event name in unsubscribe request, skipping")
				continue
			}
			delete(h.subscribed, name)
			slog.Debug("[events-ws] unsubscribed", "event", name)
		}
	default:
		slog.Debug("[events-ws] unknown action", "action", msg.Action)
	}
}

// sendError sends a JSON error message to the observer. On write failure
// the connection is cleaned up per the write failure policy (see Hub doc).
func (h *Hub) sendError(conn *websocket.Conn, message string) {
	payload, err := json.Marshal(errorMsg{Type: "error", Message: message})
	if err != nil {
		slog.Debug("[events-ws] failed to marshal error message", "error", err)
		return
	}

	h.writeMu.Lock()
	if !h.setWriteDeadlineOrClose(conn, writeDeadline) {
		h.writeMu.Unlock()
		return
	}
	writeErr := conn.WriteMessage(websocket.TextMessage, payload)
	h.clearWriteDeadline(conn)
	h.writeMu.Unlock()

	if writeErr != nil {
		slog.Debug("[events-ws] failed to send error to observer", "error", writeErr)
		h.clearIfCurrent(conn)
		h.closeConn(conn, "write error in sendError")
	}
}
