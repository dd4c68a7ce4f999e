package main

import (
	"log/slog"
	"time"
)

const (
	diagMaxEntries      = 10000
	diagEmitMinInterval = 50 * time.Millisecond
)

// DiagEntry represents a single entry in the in-app diagnostics feed.
// The Seq field provides a monotonically increasing sequence number assigned
// at append time, enabling stable frontend deduplication without relying on
// the weak composite key (ts|level|msg|source) which collides at second
// precision.
type DiagEntry struct {
	Seq       uint64 `json:"seq"`
	Timestamp string `json:"ts"`    // "20060102150405" format
	Level     string `json:"level"` // "error", "warn"
	Message   string `json:"msg"`
	Source    string `json:"source"` // slog group or component name
}

// appendDiagnostic is the sessionlog.EntryCallback wired into the slog tee.
// All state mutations and the shouldEmit decision are made in a single lock
// acquisition.
//
// The event model is "ping + fetch": the emitted app:diagnostics-updated
// event carries no payload. The frontend receives the ping and calls
// GetDiagnostics() for the full snapshot, so throttling the ping never loses
// entries.
func (a *App) appendDiagnostic(ts time.Time, level slog.Level, msg string, group string) {
	// NOTE: slog.Warn/Error must NOT be called from here. The TeeHandler
	// intercepts slog records and calls this function back, which would
	// recurse (and deadlock on the non-reentrant mutex).

	levelName := "warn"
	if level >= slog.LevelError {
		levelName = "error"
	}
	entry := DiagEntry{
		Timestamp: ts.Format("20060102150405"),
		Level:     levelName,
		Message:   msg,
		Source:    group,
	}

	shouldEmit := false
	a.diagMu.Lock()
	a.diagSeq++
	entry.Seq = a.diagSeq
	a.diagEntries.push(entry)
	now := time.Now()
	if now.Sub(a.diagLastEmit) >= diagEmitMinInterval {
		a.diagLastEmit = now
		shouldEmit = true
	}
	a.diagMu.Unlock()

	// NOTE: nil payload arrives as JSON null on the frontend. Intentional;
	// the event is a notification trigger, not a data carrier.
	if shouldEmit {
		a.emitRuntimeEvent("app:diagnostics-updated", nil)
	}
}

// GetDiagnostics returns a copy of all in-memory diagnostics entries.
// Wails-bound: called from the frontend after an app:diagnostics-updated
// ping, ensuring it always has the complete snapshot regardless of ping
// throttling.
func (a *App) GetDiagnostics() []DiagEntry {
	a.diagMu.RLock()
	defer a.diagMu.RUnlock()
	return a.diagEntries.snapshot()
}

// diagRingBuffer is a fixed-capacity circular buffer for DiagEntry. It
// avoids O(N) slice copies on every append by overwriting the oldest entry
// when full, using a head index and a count to track the logical window.
//
// Not safe for concurrent use; callers must hold diagMu.
type diagRingBuffer struct {
	buf   []DiagEntry // fixed-size backing array
	head  int         // index of the oldest entry (next to be overwritten when full)
	count int         // number of valid entries (0..cap)
}

// newDiagRingBuffer allocates a ring buffer with the given capacity.
// Capacity values <= 0 are clamped to 1 to prevent modulo-by-zero panics.
func newDiagRingBuffer(capacity int) diagRingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return diagRingBuffer{
		buf: make([]DiagEntry, capacity),
	}
}

// push appends an entry to the ring buffer. When full, the oldest entry is
// overwritten. Amortized O(1) with no allocation after construction.
func (rb *diagRingBuffer) push(entry DiagEntry) {
	bufCap := len(rb.buf)
	if bufCap == 0 {
		return
	}
	if rb.count < bufCap {
		rb.buf[(rb.head+rb.count)%bufCap] = entry
		rb.count++
	} else {
		rb.buf[rb.head] = entry
		rb.head = (rb.head + 1) % bufCap
	}
}

// snapshot returns a newly allocated slice containing all entries in
// chronological order (oldest first).
func (rb *diagRingBuffer) snapshot() []DiagEntry {
	if rb.count == 0 {
		return []DiagEntry{}
	}

	out := make([]DiagEntry, rb.count)
	bufCap := len(rb.buf)

	first := min(bufCap-rb.head, rb.count)
	copy(out, rb.buf[rb.head:rb.head+first])
	if rest := rb.count - first; rest > 0 {
		copy(out[first:], rb.buf[:rest])
	}
	return out
}

func (rb *diagRingBuffer) len() int {
	return rb.count
}
