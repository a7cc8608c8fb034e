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

package actor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/log"
	"github.com/tochemey/warden/supervisor"
)

// countingLimiter lets every restart through and counts them
type countingLimiter struct {
	waits atomic.Int32
}

func (l *countingLimiter) Wait(context.Context) error {
	l.waits.Add(1)
	return nil
}

func TestSystem(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		system, err := Init(context.Background(), NewConfig(WithLogger(log.DiscardLogger)))
		require.NoError(t, err)
		assert.Equal(t, "warden", system.Name())
		assert.True(t, system.Running())
		assert.NotNil(t, system.Logger())
		assert.NotNil(t, system.Root())
		assert.Equal(t, "root", system.Root().Name())
		assert.Nil(t, system.Root().Parent())
		assert.Zero(t, system.NumChildren())
		assert.GreaterOrEqual(t, system.Uptime(), int64(0))

		require.NoError(t, system.StopAll(context.Background(), time.Second))
		assert.False(t, system.Running())
		assert.Zero(t, system.Uptime())
	})
	t.Run("With nil config", func(t *testing.T) {
		system, err := Init(context.Background(), nil)
		require.NoError(t, err)
		require.NoError(t, system.StopAll(context.Background(), time.Second))
	})
	t.Run("With invalid config", func(t *testing.T) {
		_, err := Init(context.Background(), NewConfig(WithWorkers(0)))
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
	})
	t.Run("With live children count", func(t *testing.T) {
		ctx := context.Background()
		system, _ := newTestSystem(t)

		group, err := system.Children(ctx, newTestFactory(nil), 3, supervisor.Permanent())
		require.NoError(t, err)
		running(t, slots(t, group)...)
		assert.EqualValues(t, 3, system.NumChildren())

		child, _ := group.Slot(0)
		require.NoError(t, child.Stop(ctx))
		assert.EqualValues(t, 2, system.NumChildren())
	})
	t.Run("With tell by identifier", func(t *testing.T) {
		ctx := context.Background()
		system, _ := newTestSystem(t)
		out := make(chan received, 10)

		child, err := system.Spawn(ctx, newTestFactory(out))
		require.NoError(t, err)
		running(t, child)
		id := child.ID()

		found, ok := system.Child(id)
		require.True(t, ok)
		assert.Same(t, child, found)

		require.NoError(t, system.Tell(ctx, id, ping{}))
		assert.Equal(t, id, next(t, out).id)

		require.NoError(t, child.Tell(ctx, failMsg{}))
		restarted(t, child, id)

		_, ok = system.Child(id)
		assert.False(t, ok)
		require.ErrorIs(t, system.Tell(ctx, id, ping{}), gerrors.ErrChildNotFound)
		require.ErrorIs(t, system.Tell(ctx, newID(), ping{}), gerrors.ErrChildNotFound)
	})
	t.Run("With events subscription", func(t *testing.T) {
		ctx := context.Background()
		system, _ := newTestSystem(t)

		subscription, err := system.Subscribe()
		require.NoError(t, err)
		assert.NotEmpty(t, subscription.ID())

		child, err := system.Spawn(ctx, newTestFactory(nil))
		require.NoError(t, err)
		running(t, child)
		id := child.ID()
		require.NoError(t, child.Tell(ctx, failMsg{}))
		restarted(t, child, id)

		var kinds []EventKind
		require.Eventually(t, func() bool {
			for _, event := range subscription.Events() {
				kinds = append(kinds, event.Kind)
			}
			return len(kinds) > 0 && kinds[len(kinds)-1] == EventTransition
		}, time.Second, 5*time.Millisecond)
		assert.Contains(t, kinds, EventSpawned)
		assert.Contains(t, kinds, EventFault)
		assert.Contains(t, kinds, EventRestart)

		require.NoError(t, system.Unsubscribe(subscription))
		require.NoError(t, child.Stop(ctx))
		assert.Empty(t, subscription.Events())
	})
	t.Run("With filtered subscription", func(t *testing.T) {
		ctx := context.Background()
		system, _ := newTestSystem(t)

		subscription, err := system.Subscribe(EventRestart)
		require.NoError(t, err)

		child, err := system.Spawn(ctx, newTestFactory(nil))
		require.NoError(t, err)
		running(t, child)
		id := child.ID()
		require.NoError(t, child.Tell(ctx, failMsg{}))
		restarted(t, child, id)

		select {
		case <-subscription.Ready():
		case <-time.After(time.Second):
			require.Fail(t, "no restart event")
		}

		require.Eventually(t, func() bool {
			for _, event := range subscription.Events() {
				require.Equal(t, EventRestart, event.Kind)
				return true
			}
			return false
		}, time.Second, 5*time.Millisecond)
		require.NoError(t, system.Unsubscribe(subscription))
	})
	t.Run("With event sink function", func(t *testing.T) {
		ctx := context.Background()
		var spawned atomic.Int32
		sink := EventSinkFunc(func(event Event) {
			if event.Kind == EventSpawned {
				spawned.Add(1)
			}
		})
		system, _ := newTestSystem(t, WithEventSink(sink))

		_, err := system.Children(ctx, newTestFactory(nil), 4, supervisor.Permanent())
		require.NoError(t, err)
		assert.EqualValues(t, 4, spawned.Load())
	})
	t.Run("With restart limiter", func(t *testing.T) {
		ctx := context.Background()
		limiter := new(countingLimiter)
		system, _ := newTestSystem(t, WithRestartLimiter(limiter))

		child, err := system.Spawn(ctx, newTestFactory(nil))
		require.NoError(t, err)
		running(t, child)
		id := child.ID()

		require.NoError(t, child.Tell(ctx, failMsg{}))
		restarted(t, child, id)
		assert.EqualValues(t, 1, limiter.waits.Load())
	})
	t.Run("With high watermark", func(t *testing.T) {
		ctx := context.Background()
		system, rec := newTestSystem(t, WithHighWatermark(3))
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })

		child, err := system.Spawn(ctx, newTestFactory(nil))
		require.NoError(t, err)
		running(t, child)

		require.NoError(t, child.Tell(ctx, blockMsg{release: release}))
		for range 5 {
			require.NoError(t, child.Tell(ctx, ping{}))
		}

		require.Eventually(t, func() bool { return len(rec.kind(EventHighWatermark)) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, child.ID(), rec.kind(EventHighWatermark)[0].Child)
	})
	t.Run("With metric enabled", func(t *testing.T) {
		ctx := context.Background()
		system, rec := newTestSystem(t, WithMetric())

		child, err := system.Spawn(ctx, newTestFactory(nil))
		require.NoError(t, err)
		running(t, child)
		id := child.ID()

		require.NoError(t, child.Tell(ctx, failMsg{}))
		restarted(t, child, id)
		assert.Len(t, rec.kind(EventFault), 1)
		assert.NotNil(t, system.registration)
	})
	t.Run("With StopAll", func(t *testing.T) {
		ctx := context.Background()
		system, err := Init(ctx, NewConfig(WithLogger(log.DiscardLogger), WithWorkers(2)))
		require.NoError(t, err)

		sup, err := system.Supervisor(ctx, supervisor.OneForOneStrategy, supervisor.DefaultIntensity)
		require.NoError(t, err)
		first, err := sup.Children(ctx, newTestFactory(nil), 2, supervisor.Permanent())
		require.NoError(t, err)
		second, err := system.Children(ctx, newTestFactory(nil), 2, supervisor.Permanent())
		require.NoError(t, err)

		require.ErrorIs(t, system.StopAll(ctx, 0), gerrors.ErrInvalidTimeout)
		require.NoError(t, system.StopAll(ctx, time.Second))
		require.NoError(t, system.StopAll(ctx, time.Second))

		for _, child := range append(slots(t, first), slots(t, second)...) {
			assert.Equal(t, Stopped, child.State())
		}
		assert.Zero(t, system.NumChildren())
		require.NoError(t, system.BlockUntilStopped())

		select {
		case <-system.Stopped():
		default:
			require.FailNow(t, "stopped channel should be closed")
		}

		_, err = system.Children(ctx, newTestFactory(nil), 1, supervisor.Permanent())
		require.ErrorIs(t, err, gerrors.ErrSystemNotStarted)
		require.ErrorIs(t, system.Tell(ctx, newID(), ping{}), gerrors.ErrSystemNotStarted)
		require.ErrorIs(t, system.Broadcast(ctx, ping{}), gerrors.ErrSystemNotStarted)
		_, err = system.Subscribe()
		require.ErrorIs(t, err, gerrors.ErrSystemNotStarted)
	})
	t.Run("With Kill dropping pending messages", func(t *testing.T) {
		ctx := context.Background()
		rec := new(recorder)
		system, err := Init(ctx, NewConfig(WithLogger(log.DiscardLogger), WithEventSink(rec)))
		require.NoError(t, err)

		release := make(chan struct{})
		child, err := system.Spawn(ctx, newTestFactory(nil))
		require.NoError(t, err)
		running(t, child)

		require.NoError(t, child.Tell(ctx, blockMsg{release: release}))
		for range 3 {
			require.NoError(t, child.Tell(ctx, ping{}))
		}

		go func() {
			for child.State() != Stopping {
				time.Sleep(time.Millisecond)
			}
			close(release)
		}()

		require.NoError(t, system.Kill(ctx))
		assert.Equal(t, Stopped, child.State())

		var dropped int64
		for _, event := range rec.kind(EventDropped) {
			dropped += event.Count
		}
		assert.EqualValues(t, 3, dropped)
	})
}
