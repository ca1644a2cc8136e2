package log

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogBufferWraps(t *testing.T) {
	b := NewLogBuffer(3)
	assert.Empty(t, b.GetEntries())

	for i := 0; i < 5; i++ {
		b.AddEntry(LogEntry{Message: fmt.Sprint(i)})
	}

	entries := b.GetEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, "2", entries[0].Message)
	assert.Equal(t, "4", entries[2].Message)
	assert.Equal(t, 3, b.Len())
}

func TestLogBufferPartial(t *testing.T) {
	b := NewLogBuffer(10)
	b.AddEntry(LogEntry{Message: "a"})
	b.AddEntry(LogEntry{Message: "b"})

	entries := b.GetEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Message)

	// Returned slices are copies
	entries[0].Message = "changed"
	assert.Equal(t, "a", b.GetEntries()[0].Message)
}

func TestLogHTTPRequest(t *testing.T) {
	before := GetHTTPLogBuffer().Len()

	tests := []struct {
		name     string
		req      HTTPRequest
		expected string
	}{
		{"ok", HTTPRequest{Method: "GET", Path: "/api/trails", Status: 200, RequestID: "abc"}, "info"},
		{"client error", HTTPRequest{Method: "POST", Path: "/api/segments", Status: 400}, "warn"},
		{"upstream error", HTTPRequest{Method: "POST", Path: "/api/parser", Status: 502, Err: errors.New("boom")}, "error"},
		{"rejected input", HTTPRequest{Method: "POST", Path: "/api/update", Status: 400, Err: errors.New("bad threshold")}, "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Duration = 3 * time.Millisecond
			LogHTTPRequest(tt.req)

			entries := GetHTTPLogBuffer().GetEntries()
			last := entries[len(entries)-1]
			if last.Level != tt.expected {
				t.Errorf("Level = %q, expected %q", last.Level, tt.expected)
			}
			assert.Equal(t, tt.req.Path, last.Fields["path"])
		})
	}

	assert.Equal(t, before+len(tests), GetHTTPLogBuffer().Len())
	assert.Equal(t, "abc", GetHTTPLogBuffer().GetEntries()[before].Fields["request_id"])

	entries := GetHTTPLogBuffer().GetEntries()
	assert.Equal(t, "boom", entries[before+2].Fields["error"])
	assert.Equal(t, "bad threshold", entries[before+3].Fields["error"])
	assert.NotContains(t, entries[before].Fields, "error")
}

func TestGetSugaredLoggerConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	loggers := make([]*zap.SugaredLogger, 16)
	for i := range loggers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loggers[i] = GetSugaredLogger()
			Debugw("concurrent", "worker", i)
		}()
	}
	wg.Wait()

	for _, l := range loggers {
		require.NotNil(t, l)
		assert.Same(t, loggers[0], l)
	}
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trailrunners.log")
	require.NoError(t, InitWithFile(false, FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1}))
	Infof("hello %s", "file")
	Sync()

	assert.FileExists(t, path)
	require.NoError(t, Init(true))
}
