//go:build !windows

package ipc

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testEndpoint(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "activation.sock")
}

func startTestServer(t *testing.T, handler Handler) *Server {
	t.Helper()
	server := NewServer(testEndpoint(t), handler)
	if err := server.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		if err := server.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	})
	return server
}

func okHandler() Handler {
	return HandlerFunc(func(req Request) Response {
		return Response{OK: true}
	})
}

func TestStartRequiresHandler(t *testing.T) {
	server := NewServer(testEndpoint(t), nil)
	if err := server.Start(); err == nil {
		t.Error("expected error when starting without handler")
		server.Stop()
	}
}

func TestStartTwiceFails(t *testing.T) {
	server := startTestServer(t, okHandler())
	if err := server.Start(); err == nil {
		t.Error("expected error on second Start")
	}
}

func TestStopIdempotent(t *testing.T) {
	server := NewServer(testEndpoint(t), okHandler())
	if err := server.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("first Stop failed: %v", err)
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}

func TestPingRoundTrip(t *testing.T) {
	server := startTestServer(t, okHandler())

	resp, err := Send(server.Endpoint(), Request{Action: ActionPing})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !resp.OK {
		t.Errorf("ping response not ok: %+v", resp)
	}
}

func TestActivateReachesHandler(t *testing.T) {
	var activations atomic.Int64
	server := startTestServer(t, HandlerFunc(func(req Request) Response {
		if req.Action == ActionActivate {
			activations.Add(1)
			return Response{OK: true}
		}
		return Response{OK: false, Message: "unknown action: " + req.Action}
	}))

	resp, err := Send(server.Endpoint(), Request{Action: ActionActivate})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !resp.OK {
		t.Errorf("activate response not ok: %+v", resp)
	}
	if got := activations.Load(); got != 1 {
		t.Errorf("handler invoked %d times, want 1", got)
	}

	resp, err = Send(server.Endpoint(), Request{Action: "bogus"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if resp.OK {
		t.Error("unknown action should not succeed")
	}
	if !strings.Contains(resp.Message, "bogus") {
		t.Errorf("message %q does not name the rejected action", resp.Message)
	}
}

func TestSendWithoutServerIsConnectionError(t *testing.T) {
	_, err := Send(testEndpoint(t), Request{Action: ActionPing})
	if err == nil {
		t.Fatal("expected dial failure")
	}
	if !IsConnectionError(err) {
		t.Errorf("IsConnectionError(%v) = false, want true", err)
	}
}

func TestMalformedRequestGetsErrorResponse(t *testing.T) {
	server := startTestServer(t, okHandler())

	conn, err := net.DialTimeout("unix", server.Endpoint(), time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := conn.Write([]byte("{not json\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	raw, err := readDelimitedFrame(bufio.NewReader(conn), maxResponseBytes)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	resp, err := decodeResponse(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.OK {
		t.Error("malformed request should be rejected")
	}
	if !strings.Contains(resp.Message, "invalid request") {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestOversizedRequestRejected(t *testing.T) {
	server := startTestServer(t, okHandler())

	conn, err := net.DialTimeout("unix", server.Endpoint(), time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	payload := strings.Repeat("a", maxRequestBytes+2)
	if _, err := conn.Write([]byte(payload)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	raw, err := readDelimitedFrame(bufio.NewReader(conn), maxResponseBytes)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	resp, err := decodeResponse(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.OK {
		t.Error("oversized request should be rejected")
	}
}

func TestStaleSocketIsReplaced(t *testing.T) {
	endpoint := testEndpoint(t)

	// Simulate a crashed process leaving its socket file behind.
	listener, err := net.Listen("unix", endpoint)
	if err != nil {
		t.Fatalf("pre-listen failed: %v", err)
	}
	// Keep the socket file on Close so it is actually left behind, as it
	// would be after a crash.
	listener.(*net.UnixListener).SetUnlinkOnClose(false)
	listener.Close()
	if _, err := os.Stat(endpoint); err != nil {
		t.Fatalf("expected stale socket file to exist: %v", err)
	}

	server := NewServer(endpoint, okHandler())
	if err := server.Start(); err != nil {
		t.Fatalf("Start over stale socket failed: %v", err)
	}
	defer server.Stop()

	resp, err := Send(endpoint, Request{Action: ActionPing})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !resp.OK {
		t.Errorf("ping response not ok: %+v", resp)
	}
}

func TestLiveEndpointIsNotStolen(t *testing.T) {
	first := startTestServer(t, okHandler())

	second := NewServer(first.Endpoint(), okHandler())
	if err := second.Start(); err == nil {
		t.Error("expected error when endpoint is already served")
		second.Stop()
	}
}

func TestEndpointOverride(t *testing.T) {
	t.Setenv("EMBERSHELL_ACTIVATION_ENDPOINT", "/tmp/embershell-override.sock")
	if got := DefaultEndpoint(); got != "/tmp/embershell-override.sock" {
		t.Errorf("endpoint = %q, want override", got)
	}

	t.Setenv("EMBERSHELL_ACTIVATION_ENDPOINT", "relative/path.sock")
	if got := DefaultEndpoint(); got == "relative/path.sock" {
		t.Error("relative override should be ignored")
	}
}
