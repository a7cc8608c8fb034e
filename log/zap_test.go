// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZap(t *testing.T) {
	t.Run("With Debug level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(DebugLevel, buffer)
		require.Equal(t, DebugLevel, logger.LogLevel())

		logger.Debug("test debug")
		entry := decodeEntry(t, buffer)
		assert.Equal(t, "test debug", entry["msg"])
		assert.Equal(t, DebugLevel.String(), entry["level"])
	})
	t.Run("With Info level skips debug entries", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.Debug("hidden")
		require.Zero(t, buffer.Len())

		logger.Infof("hello %s", "warden")
		entry := decodeEntry(t, buffer)
		assert.Equal(t, "hello warden", entry["msg"])
		assert.Equal(t, InfoLevel.String(), entry["level"])
	})
	t.Run("With Warn and Error levels", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(WarningLevel, buffer)
		logger.Info("hidden")
		require.Zero(t, buffer.Len())

		logger.Warn("careful")
		entry := decodeEntry(t, buffer)
		assert.Equal(t, "warn", entry["level"])

		buffer.Reset()
		logger.Errorf("failed: %v", errors.New("boom"))
		entry = decodeEntry(t, buffer)
		assert.Equal(t, "failed: boom", entry["msg"])
		assert.Contains(t, entry, "stacktrace")
	})
	t.Run("With Panic level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(PanicLevel, buffer)
		assert.Panics(t, func() { logger.Panic("going down") })
		assert.Panics(t, func() { logger.Panicf("going %s", "down") })
	})
	t.Run("SetLevel changes the enabled levels", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(ErrorLevel, buffer)
		require.False(t, logger.Enabled(InfoLevel))

		child := logger.With("child", "c-1")
		logger.SetLevel(DebugLevel)
		require.True(t, logger.Enabled(DebugLevel))
		require.True(t, child.Enabled(DebugLevel))
		require.Equal(t, DebugLevel, logger.LogLevel())
	})
	t.Run("Flush is a no-op on buffers", func(t *testing.T) {
		logger := NewZap(InfoLevel, new(bytes.Buffer))
		require.NoError(t, logger.Flush())
		require.Len(t, logger.LogOutput(), 1)
	})
}

func TestLogWith(t *testing.T) {
	t.Run("adds structured fields to output", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With("supervisor", "root", "restarts", 2, "window", time.Second).Info("restarting")

		entry := decodeEntry(t, buffer)
		assert.Equal(t, "restarting", entry["msg"])
		assert.Equal(t, "root", entry["supervisor"])
		assert.EqualValues(t, 2, entry["restarts"])
		assert.Equal(t, "1s", entry["window"])
	})
	t.Run("returns same logger when keyValues empty", func(t *testing.T) {
		logger := NewZap(InfoLevel, new(bytes.Buffer))
		assert.Equal(t, logger, logger.With())
	})
	t.Run("odd keyValues uses _ for orphan", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With("a", 1, "orphan").Info("msg")
		entry := decodeEntry(t, buffer)
		require.Contains(t, entry, "a")
		require.Contains(t, entry, "_")
	})
	t.Run("skips non-string keys", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With(42, "ignored", "k", "v").Info("msg")
		entry := decodeEntry(t, buffer)
		require.Contains(t, entry, "k")
		require.NotContains(t, entry, "42")
	})
	t.Run("more than six pairs", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With("a", 1, "b", 2, "c", 3, "d", 4, "e", 5, "f", 6, "g", 7).Info("msg")
		entry := decodeEntry(t, buffer)
		require.Contains(t, entry, "a")
		require.Contains(t, entry, "g")
	})
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger
	logger.Info("nothing")
	logger.Debugf("nothing %d", 1)
	logger.SetLevel(DebugLevel)
	assert.False(t, logger.Enabled(DebugLevel))
	assert.True(t, logger.Enabled(PanicLevel))
	assert.Equal(t, InfoLevel, logger.LogLevel())
	assert.Equal(t, DiscardLogger, logger.With("k", "v"))
	assert.NoError(t, logger.Flush())
	assert.Panics(t, func() { logger.Panic("boom") })
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name     string
		expected Level
	}{
		{name: "debug", expected: DebugLevel},
		{name: "INFO", expected: InfoLevel},
		{name: "", expected: InfoLevel},
		{name: "warning", expected: WarningLevel},
		{name: "warn", expected: WarningLevel},
		{name: " error ", expected: ErrorLevel},
		{name: "fatal", expected: FatalLevel},
		{name: "panic", expected: PanicLevel},
		{name: "verbose", expected: InvalidLevel},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.name))
		})
	}
	assert.Equal(t, "invalid", InvalidLevel.String())
}

func decodeEntry(t *testing.T, buffer *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
	return entry
}

func TestFormat(t *testing.T) {
	assert.Equal(t, ConsoleFormat, ParseFormat(" Console "))
	assert.Equal(t, JSONFormat, ParseFormat("json"))
	assert.Equal(t, JSONFormat, ParseFormat(""))

	buffer := new(bytes.Buffer)
	logger := NewZapWithFormat(ConsoleFormat, InfoLevel, buffer)
	logger.With("system", "orders").Info("started")

	line := buffer.String()
	assert.Contains(t, line, "\tinfo\t")
	assert.Contains(t, line, "started")
	assert.Contains(t, line, `{"system": "orders"}`)
	assert.False(t, json.Valid(bytes.TrimSpace(buffer.Bytes())))
}
