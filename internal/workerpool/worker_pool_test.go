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

package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/warden/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWorkerPool(t *testing.T) {
	t.Run("With happy path", func(t *testing.T) {
		pool := New(WithNumWorkers(4))
		pool.Start()
		pool.Start()
		require.Equal(t, 4, pool.NumWorkers())

		const workCount = 1000
		var wg sync.WaitGroup
		var executed atomic.Int64
		wg.Add(workCount)
		for i := range workCount {
			key := string(rune('a' + i%8))
			require.NoError(t, pool.Submit(key, func() {
				defer wg.Done()
				executed.Add(1)
			}, nil))
		}

		wg.Wait()
		assert.EqualValues(t, workCount, executed.Load())
		require.NoError(t, pool.Stop(context.Background()))
		require.NoError(t, pool.Stop(context.Background()))
	})
	t.Run("When not started", func(t *testing.T) {
		pool := New()
		require.ErrorIs(t, pool.Submit("key", func() {}, nil), errors.ErrExecutorNotStarted)
		require.NoError(t, pool.Stop(context.Background()))
	})
	t.Run("When stopped", func(t *testing.T) {
		pool := New(WithNumWorkers(1))
		pool.Start()
		require.NoError(t, pool.Stop(context.Background()))
		require.ErrorIs(t, pool.Submit("key", func() {}, nil), errors.ErrExecutorStopped)
	})
	t.Run("With panic isolation", func(t *testing.T) {
		pool := New(WithNumWorkers(1))
		pool.Start()

		faults := make(chan *errors.RuntimeFault, 1)
		require.NoError(t, pool.Submit("key", func() {
			panic("boom")
		}, func(fault *errors.RuntimeFault) {
			faults <- fault
		}))

		var fault *errors.RuntimeFault
		select {
		case fault = <-faults:
		case <-time.After(time.Second):
			t.Fatal("fault was not reported")
		}

		assert.Equal(t, "boom", fault.Value())
		assert.Contains(t, string(fault.Stack()), "worker_pool_test.go")

		// the worker survived the panic
		done := make(chan struct{})
		require.NoError(t, pool.Submit("key", func() { close(done) }, nil))
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("worker did not survive the panic")
		}

		_, _, panics := pool.Stats()
		assert.EqualValues(t, 1, panics)
		require.NoError(t, pool.Stop(context.Background()))
	})
	t.Run("With panic and no fault handler", func(t *testing.T) {
		pool := New(WithNumWorkers(1))
		pool.Start()
		require.NoError(t, pool.Submit("", func() { panic("unhandled") }, nil))

		done := make(chan struct{})
		require.NoError(t, pool.Submit("", func() { close(done) }, nil))
		<-done
		require.NoError(t, pool.Stop(context.Background()))
	})
	t.Run("With work stealing", func(t *testing.T) {
		pool := New(WithNumWorkers(4))
		pool.Start()

		// every task hashes onto the same home worker: the blocked head task
		// forces the other workers to steal the rest
		release := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		require.NoError(t, pool.Submit("hot", func() {
			defer wg.Done()
			<-release
		}, nil))

		const followers = 64
		var executed atomic.Int64
		wg.Add(followers)
		for range followers {
			require.NoError(t, pool.Submit("hot", func() {
				defer wg.Done()
				executed.Add(1)
			}, nil))
		}

		require.Eventually(t, func() bool {
			return executed.Load() == followers
		}, 2*time.Second, 5*time.Millisecond)

		close(release)
		wg.Wait()

		_, stolen, _ := pool.Stats()
		assert.NotZero(t, stolen)
		require.NoError(t, pool.Stop(context.Background()))
	})
	t.Run("Stop runs the queued tasks", func(t *testing.T) {
		pool := New(WithNumWorkers(2))
		pool.Start()

		var executed atomic.Int64
		for range 100 {
			require.NoError(t, pool.Submit("k", func() { executed.Add(1) }, nil))
		}
		require.NoError(t, pool.Stop(context.Background()))
		assert.EqualValues(t, 100, executed.Load())
	})
}
