package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "config.db")
	var out bytes.Buffer

	require.NoError(t, run([]string{"-dsn", dsn, "-command", "status"}, &out))
	assert.Contains(t, out.String(), "Current version: 0")
	assert.Contains(t, out.String(), "1: initial schema")

	out.Reset()
	require.NoError(t, run([]string{"-dsn", dsn, "-dry-run"}, &out))
	assert.Contains(t, out.String(), "up   1: initial schema")

	out.Reset()
	require.NoError(t, run([]string{"-dsn", dsn}, &out))
	assert.Contains(t, out.String(), "completed")

	out.Reset()
	require.NoError(t, run([]string{"-dsn", dsn, "-command", "version"}, &out))
	assert.Equal(t, "Current version: 1\n", out.String())

	out.Reset()
	require.NoError(t, run([]string{"-dsn", dsn, "-command", "down", "-target", "0", "-dry-run"}, &out))
	assert.Contains(t, out.String(), "down 1: initial schema")

	assert.Error(t, run([]string{"-dsn", dsn, "-command", "down", "-target", "1"}, &out))
}

func TestRunUsageErrors(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "config.db")
	var out bytes.Buffer

	tests := []struct {
		name string
		args []string
	}{
		{"missing dsn", nil},
		{"unknown command", []string{"-dsn", dsn, "-command", "sideways"}},
		{"down without target", []string{"-dsn", dsn, "-command", "down"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, run(tt.args, &out), errUsage)
		})
	}

	assert.Error(t, run([]string{"-dsn", dsn, "-command", "to", "-target", "x"}, &out))
}
