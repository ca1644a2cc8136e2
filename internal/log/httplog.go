package log

import (
	"fmt"
	"sync"
	"time"
)

// HTTP log buffer is separate from the main log buffer
var httpLogBuffer *LogBuffer
var httpLogBufferOnce sync.Once

// HTTPRequest describes one served HTTP request
type HTTPRequest struct {
	RequestID  string
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
	// Err is the failure reported by the handler, if any
	Err error
}

// GetHTTPLogBuffer returns the HTTP log buffer instance, creating it if necessary
func GetHTTPLogBuffer() *LogBuffer {
	httpLogBufferOnce.Do(func() {
		httpLogBuffer = NewLogBuffer(1000) // Keep last 1000 HTTP log entries
	})
	return httpLogBuffer
}

// LogHTTPRequest records a request in the HTTP log buffer and writes it to the debug log
func LogHTTPRequest(r HTTPRequest) {
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "info",
		Message:   fmt.Sprintf("%s %s %d %v %d bytes", r.Method, r.Path, r.Status, r.Duration, r.Size),
		Fields: map[string]any{
			"method":      r.Method,
			"path":        r.Path,
			"status":      r.Status,
			"duration_ms": r.Duration.Milliseconds(),
			"size":        r.Size,
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent,
		},
	}

	if r.RequestID != "" {
		entry.Fields["request_id"] = r.RequestID
	}

	if r.Err != nil {
		entry.Fields["error"] = r.Err.Error()
	}

	switch {
	case r.Status >= 500:
		entry.Level = "error"
	case r.Status >= 400:
		entry.Level = "warn"
	}

	GetHTTPLogBuffer().AddEntry(entry)
	Debugw(entry.Message, "request_id", r.RequestID, "remote_addr", r.RemoteAddr)
}
