package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"time"
)

const (
	defaultDialTimeout = 3 * time.Second
	defaultRWTimeout   = 15 * time.Second
	maxResponseBytes   = 64 * 1024
)

// Send sends one request and waits for one response.
func Send(endpoint string, req Request) (Response, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint()
	}

	conn, err := dialEndpoint(endpoint)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(defaultRWTimeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}

	rawReq, err := encodeRequest(req)
	if err != nil {
		return Response{}, err
	}

	if _, err := conn.Write(rawReq); err != nil {
		return Response{}, err
	}
	if _, err := conn.Write([]byte{'\n'}); err != nil {
		return Response{}, err
	}

	respRaw, err := readDelimitedFrame(bufio.NewReaderSize(conn, maxResponseBytes+1), maxResponseBytes)
	if err != nil {
		return Response{}, err
	}

	resp, err := decodeResponse(respRaw)
	if err != nil {
		return Response{}, fmt.Errorf("invalid response: %w", err)
	}
	return resp, nil
}

func readDelimitedFrame(reader *bufio.Reader, maxBytes int) ([]byte, error) {
	raw, err := reader.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("frame exceeds %d bytes", maxBytes)
	}
	if errors.Is(err, io.EOF) {
		if len(raw) == 0 {
			return nil, io.EOF
		}
		return raw, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// IsConnectionError returns true when the error indicates that no running
// instance is listening on the endpoint (dial/connect failures).
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" || opErr.Op == "open"
	}
	return false
}
