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

package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/warden/actor"
	"github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/log"
	"github.com/tochemey/warden/supervisor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const sample = `
name: orders
workers: 4
mailbox_capacity: 16
high_watermark: 100
stop_timeout: 2s
drain_on_stop: false
restart_rate:
  per_second: 10
  burst: 5
init_max_retries: 2
init_timeout: 500ms
log:
  level: warn
  format: console
root:
  strategy: one_for_all
  intensity:
    max_restarts: 5
    window: 10s
  children:
    - group:
        name: workers
        kind: echo
        count: 3
        policy: permanent
    - supervisor:
        name: tickers
        strategy: rest_for_one
        children:
          - group:
              kind: echo
              count: 2
              policy: tries
              tries: 4
              mailbox: 8
`

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "warden.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func echoKinds() *Kinds {
	return NewKinds().Register("echo", actor.FuncFactory(func(*actor.ReceiveContext) {}))
}

func TestLoad(t *testing.T) {
	t.Run("With valid file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), sample)
		file, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "orders", file.Name)
		assert.Equal(t, 4, file.Workers)
		assert.Equal(t, 16, file.MailboxCapacity)
		assert.EqualValues(t, 100, file.HighWatermark)
		assert.Equal(t, 2*time.Second, file.StopTimeout)
		require.NotNil(t, file.DrainOnStop)
		assert.False(t, *file.DrainOnStop)
		require.NotNil(t, file.RestartRate)
		assert.InDelta(t, 10.0, file.RestartRate.PerSecond, 0.0001)
		assert.Equal(t, 5, file.RestartRate.Burst)
		assert.Equal(t, 500*time.Millisecond, file.InitTimeout)
		assert.Equal(t, log.WarningLevel, file.Level())
		assert.Equal(t, "console", file.Log.Format)

		buffer := new(bytes.Buffer)
		logger := file.Logger(buffer)
		assert.Equal(t, log.WarningLevel, logger.LogLevel())
		logger.Info("hidden")
		logger.Warn("shown")
		assert.Contains(t, buffer.String(), "\twarn\t")
		assert.NotContains(t, buffer.String(), "hidden")

		require.Len(t, file.Root.Children, 2)
		group := file.Root.Children[0].Group
		require.NotNil(t, group)
		assert.Equal(t, "workers", group.Name)
		assert.Equal(t, 3, group.Count)

		nested := file.Root.Children[1].Supervisor
		require.NotNil(t, nested)
		assert.Equal(t, "tickers", nested.Name)
		require.Len(t, nested.Children, 1)
		assert.EqualValues(t, 4, nested.Children[0].Group.Tries)
		assert.Equal(t, 8, nested.Children[0].Group.Mailbox)
	})
	t.Run("With missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("With malformed file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "name: [")
		_, err := Load(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	})
	t.Run("With unknown field", func(t *testing.T) {
		_, err := Parse([]byte("name: orders\nworkerz: 3\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	})
	t.Run("With empty document", func(t *testing.T) {
		file, err := Parse(nil)
		require.NoError(t, err)
		assert.Empty(t, file.Name)
		assert.Empty(t, file.Root.Children)
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "negative workers", content: "workers: -1"},
		{name: "negative stop timeout", content: "stop_timeout: -1s"},
		{name: "unknown log level", content: "log:\n  level: loud"},
		{name: "unknown log format", content: "log:\n  format: xml"},
		{name: "restart rate without burst", content: "restart_rate:\n  per_second: 2"},
		{name: "unknown strategy", content: "root:\n  strategy: all_for_none"},
		{name: "invalid intensity", content: "root:\n  intensity:\n    max_restarts: 1\n    window: 0s"},
		{name: "empty node", content: "root:\n  children:\n    - {}"},
		{name: "group without kind", content: "root:\n  children:\n    - group:\n        count: 1"},
		{name: "group without count", content: "root:\n  children:\n    - group:\n        kind: echo"},
		{name: "unknown policy", content: "root:\n  children:\n    - group:\n        kind: echo\n        count: 1\n        policy: sometimes"},
		{name: "zero tries", content: "root:\n  children:\n    - group:\n        kind: echo\n        count: 1\n        policy: tries"},
		{
			name:    "group and supervisor in one node",
			content: "root:\n  children:\n    - group:\n        kind: echo\n        count: 1\n      supervisor:\n        strategy: one_for_one",
		},
		{
			name:    "invalid nested supervisor",
			content: "root:\n  children:\n    - supervisor:\n        strategy: nope",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestOptions(t *testing.T) {
	t.Run("With full file", func(t *testing.T) {
		file, err := Parse([]byte(sample))
		require.NoError(t, err)

		config := actor.NewConfig(file.Options()...)
		require.NoError(t, config.Validate())
		assert.Equal(t, "orders", config.Name())
		assert.Equal(t, 4, config.Workers())
		assert.Equal(t, 16, config.MailboxCapacity())
		assert.EqualValues(t, 100, config.HighWatermark())
		assert.Equal(t, 2*time.Second, config.StopTimeout())
		assert.False(t, config.DrainOnStop())
		assert.Equal(t, supervisor.OneForAllStrategy, config.Strategy())
		assert.Equal(t, supervisor.NewIntensity(5, 10*time.Second), config.Intensity())
	})
	t.Run("With defaults", func(t *testing.T) {
		file, err := Parse([]byte("name: bare\n"))
		require.NoError(t, err)

		defaults := actor.NewConfig()
		config := actor.NewConfig(file.Options()...)
		assert.Equal(t, "bare", config.Name())
		assert.Equal(t, defaults.Workers(), config.Workers())
		assert.Equal(t, defaults.StopTimeout(), config.StopTimeout())
		assert.Equal(t, defaults.DrainOnStop(), config.DrainOnStop())
		assert.Equal(t, supervisor.OneForOneStrategy, config.Strategy())
		assert.Equal(t, supervisor.DefaultIntensity, config.Intensity())
		assert.Equal(t, log.InfoLevel, file.Level())
	})
}

func TestKinds(t *testing.T) {
	kinds := echoKinds()
	kinds.Register("ticker", actor.FuncFactory(func(*actor.ReceiveContext) {}))

	factory, err := kinds.Get("echo")
	require.NoError(t, err)
	assert.NotNil(t, factory)

	_, err = kinds.Get("unknown")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrFactoryNotRegistered)

	assert.Equal(t, []string{"echo", "ticker"}, kinds.Names())
}

func TestBuild(t *testing.T) {
	t.Run("With registered kinds", func(t *testing.T) {
		ctx := context.Background()
		file, err := Parse([]byte(sample))
		require.NoError(t, err)

		opts := append(file.Options(), actor.WithLogger(log.DiscardLogger))
		sys, err := actor.Init(ctx, actor.NewConfig(opts...))
		require.NoError(t, err)
		t.Cleanup(func() { _ = sys.StopAll(ctx, time.Second) })

		require.NoError(t, file.Build(ctx, sys, echoKinds()))

		root := sys.Root()
		groups := root.Groups()
		require.Len(t, groups, 1)
		assert.Equal(t, "workers", groups[0].Name())
		assert.Equal(t, 3, groups[0].Len())
		assert.Equal(t, supervisor.Permanent(), groups[0].Policy())

		nested := root.Supervisors()
		require.Len(t, nested, 1)
		assert.Equal(t, "tickers", nested[0].Name())
		assert.Equal(t, supervisor.RestForOneStrategy, nested[0].Strategy())

		inner := nested[0].Groups()
		require.Len(t, inner, 1)
		assert.Equal(t, "echo", inner[0].Name())
		assert.Equal(t, supervisor.Tries(4), inner[0].Policy())

		assert.Eventually(t, func() bool { return sys.NumChildren() == 5 }, 2*time.Second, 10*time.Millisecond)
	})
	t.Run("With unknown kind", func(t *testing.T) {
		ctx := context.Background()
		file, err := Parse([]byte(sample))
		require.NoError(t, err)

		sys, err := actor.Init(ctx, actor.NewConfig(actor.WithLogger(log.DiscardLogger)))
		require.NoError(t, err)
		t.Cleanup(func() { _ = sys.StopAll(ctx, time.Second) })

		err = file.Build(ctx, sys, NewKinds())
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrFactoryNotRegistered)
		assert.Empty(t, sys.Root().Groups())
		assert.Empty(t, sys.Root().Supervisors())
	})
}

func TestWatch(t *testing.T) {
	t.Run("With changes", func(t *testing.T) {
		ctx := context.Background()
		path := writeFile(t, t.TempDir(), "name: orders\nlog:\n  level: info\n")

		changes := make(chan *File, 4)
		watcher, err := Watch(ctx, path, func(file *File) { changes <- file }, WithDebounce(50*time.Millisecond))
		require.NoError(t, err)

		abs, err := filepath.Abs(path)
		require.NoError(t, err)
		assert.Equal(t, abs, watcher.Path())

		require.NoError(t, os.WriteFile(path, []byte("name: orders\nlog:\n  level: debug\n"), 0o600))

		select {
		case file := <-changes:
			assert.Equal(t, log.DebugLevel, file.Level())
		case <-time.After(3 * time.Second):
			t.Fatal("no reload observed")
		}

		require.NoError(t, watcher.Close())
		require.NoError(t, watcher.Close())
	})
	t.Run("With invalid change", func(t *testing.T) {
		ctx := context.Background()
		path := writeFile(t, t.TempDir(), "name: orders\n")

		changes := make(chan *File, 4)
		watcher, err := Watch(ctx, path, func(file *File) { changes <- file }, WithDebounce(20*time.Millisecond))
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("workers: -3\n"), 0o600))
		assert.Never(t, func() bool { return len(changes) > 0 }, 300*time.Millisecond, 20*time.Millisecond)
		require.NoError(t, watcher.Close())
	})
	t.Run("With other files in the directory", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		dir := t.TempDir()
		path := writeFile(t, dir, "name: orders\n")

		changes := make(chan *File, 4)
		watcher, err := Watch(ctx, path, func(file *File) { changes <- file }, WithDebounce(20*time.Millisecond))
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("name: other\n"), 0o600))
		assert.Never(t, func() bool { return len(changes) > 0 }, 300*time.Millisecond, 20*time.Millisecond)

		cancel()
		require.NoError(t, watcher.Close())
	})
	t.Run("With missing directory", func(t *testing.T) {
		_, err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "warden.yaml"), nil)
		require.Error(t, err)
	})
}
