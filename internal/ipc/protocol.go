// Package ipc implements the activation channel between a freshly launched
// process and an already running instance. The protocol is one JSON request
// and one JSON response per connection, newline-delimited, over a named
// pipe on Windows and a Unix domain socket elsewhere.
package ipc

import (
	"encoding/json"
	"os"
	"os/user"
	"strings"

	"embershell/internal/userutil"
)

// Activation actions.
const (
	// ActionActivate asks the running instance to raise and focus its
	// window.
	ActionActivate = "activate-window"
	// ActionPing checks whether a running instance is reachable.
	ActionPing = "ping"
)

// Request is a single activation request.
type Request struct {
	Action string `json:"action"`
}

// Response is the reply to a Request.
type Response struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Handler executes an activation request in the running instance.
type Handler interface {
	Execute(req Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(req Request) Response

// Execute implements Handler.
func (f HandlerFunc) Execute(req Request) Response { return f(req) }

// currentUsername resolves the name used in per-user endpoint names.
func currentUsername() string {
	username := strings.TrimSpace(os.Getenv("USERNAME"))
	if username == "" {
		if current, err := user.Current(); err == nil {
			username = current.Username
		}
	}
	return userutil.SanitizeUsername(username)
}

func encodeRequest(req Request) ([]byte, error) {
	return json.Marshal(req)
}

func decodeRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func encodeResponse(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

func decodeResponse(raw []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
