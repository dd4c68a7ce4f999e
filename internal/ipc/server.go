package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	defaultConnTimeout              = 30 * time.Second
	maxRequestBytes                 = 64 * 1024 // limits request size to prevent memory exhaustion
	defaultMaxConcurrentConnections = 64
	connSlotAcquireTimeout          = 5 * time.Second
)

// Server receives activation requests from later process launches over the
// per-user endpoint.
type Server struct {
	endpoint string
	handler  Handler

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	listener  net.Listener
	started   bool
	wg        sync.WaitGroup
	connSlots chan struct{}
}

// NewServer constructs a Server.
func NewServer(endpoint string, handler Handler) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	if endpoint == "" {
		endpoint = DefaultEndpoint()
	}
	return &Server{
		endpoint:  endpoint,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
		connSlots: make(chan struct{}, defaultMaxConcurrentConnections),
	}
}

// Endpoint returns the listen endpoint name.
func (s *Server) Endpoint() string {
	return s.endpoint
}

// Start begins listening on the activation endpoint.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("activation server already started")
	}
	if s.handler == nil {
		return errors.New("activation server requires handler")
	}

	listener, err := listenEndpoint(s.endpoint)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.endpoint, err)
	}

	s.listener = listener
	s.started = true
	s.wg.Go(s.acceptLoop)
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	if listener != nil {
		if err := listener.Close(); err != nil {
			slog.Warn("[ipc] failed to close activation listener during shutdown", "error", err)
		}
	}
	s.wg.Wait()
	return nil
}

func (s *Server) acceptLoop() {
	consecutiveErrors := 0
	for {
		s.mu.Lock()
		listener := s.listener
		s.mu.Unlock()
		if listener == nil {
			return
		}

		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				consecutiveErrors++
				if consecutiveErrors > 10 {
					slog.Warn("[ipc] accept loop: repeated failures, possible permanent error", "error", err, "count", consecutiveErrors)
					time.Sleep(500 * time.Millisecond)
				} else {
					slog.Debug("[ipc] accept error", "error", err)
				}
				continue
			}
		}
		consecutiveErrors = 0

		if !s.acquireConnectionSlot() {
			s.writeResponse(conn, Response{
				OK:      false,
				Message: "server busy, try again later",
			})
			if closeErr := conn.Close(); closeErr != nil {
				slog.Debug("[ipc] failed to close rejected connection", "error", closeErr)
			}
			continue
		}

		s.wg.Go(func() {
			defer s.releaseConnectionSlot()
			s.handleConnection(conn)
		})
	}
}

// handleConnection processes a single client connection (one request per
// connection). A deadline of defaultConnTimeout is enforced and requests
// exceeding maxRequestBytes are rejected with an error response.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		slog.Warn("[ipc] failed to set connection deadline", "error", err)
		return
	}

	reader := bufio.NewReaderSize(conn, maxRequestBytes+1)
	rawReq, err := readDelimitedFrame(reader, maxRequestBytes)
	if errors.Is(err, io.EOF) {
		slog.Debug("[ipc] client disconnected without sending data")
		return
	}
	if err != nil {
		s.writeResponse(conn, Response{
			OK:      false,
			Message: fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	req, err := decodeRequest(rawReq)
	if err != nil {
		s.writeResponse(conn, Response{
			OK:      false,
			Message: fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	slog.Debug("[ipc] received activation request", "action", req.Action)

	resp := s.handler.Execute(req)
	s.writeResponse(conn, resp)
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	rawResp, err := encodeResponse(resp)
	if err != nil {
		slog.Warn("[ipc] failed to encode response", "error", err)
		rawResp = []byte(`{"ok":false,"message":"internal encode error"}`)
	}
	if _, err := conn.Write(rawResp); err != nil {
		slog.Debug("[ipc] failed to write response", "error", err)
		return
	}
	if _, err := conn.Write([]byte{'\n'}); err != nil {
		slog.Debug("[ipc] failed to write response delimiter", "error", err)
	}
}

func (s *Server) acquireConnectionSlot() bool {
	if s.connSlots == nil {
		return true
	}
	timer := time.NewTimer(connSlotAcquireTimeout)
	defer timer.Stop()
	select {
	case s.connSlots <- struct{}{}:
		return true
	case <-timer.C:
		slog.Warn("[ipc] connection slot exhausted, rejecting client")
		return false
	case <-s.ctx.Done():
		return false
	}
}

func (s *Server) releaseConnectionSlot() {
	if s.connSlots == nil {
		return
	}
	select {
	case <-s.connSlots:
	default:
		slog.Warn("[ipc] releaseConnectionSlot: no slot to release (possible double-release)")
	}
}
