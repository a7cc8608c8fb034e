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

// Package workerpool provides a fixed-size, work-stealing pool of workers.
//
// Every worker owns a local deque. Submitted tasks are placed on the deque of a
// home worker chosen by hashing the task key, so that the work of one child keeps
// landing on the same worker. A worker that runs out of local work takes tasks
// from the shared injection queue and then steals half of the deque of a busy
// peer. Panics raised by a task are recovered at the task boundary and handed
// to the task's fault handler; the worker goroutine itself never unwinds.
package workerpool

import (
	"context"
	"math/rand/v2"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"

	"github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/internal/queue"
	"github.com/tochemey/warden/log"
)

// FaultHandler receives the fault produced by a panicking task
type FaultHandler func(fault *errors.RuntimeFault)

// task is a unit of work
type task struct {
	run   func()
	fault FaultHandler
}

// WorkerPool manages a fixed set of workers that execute submitted tasks.
type WorkerPool struct {
	numWorkers int
	workers    []*worker
	injector   *queue.Deque[*task]
	logger     log.Logger

	mutex   sync.RWMutex
	started atomic.Bool
	stopped atomic.Bool
	quit    chan struct{}
	wg      sync.WaitGroup

	executed atomic.Uint64
	stolen   atomic.Uint64
	panics   atomic.Uint64
}

// worker is a goroutine running tasks from its own deque
type worker struct {
	id     int
	pool   *WorkerPool
	local  *queue.Deque[*task]
	wake   chan struct{}
	parked atomic.Bool
}

// New creates a new worker pool with the given options.
func New(opts ...Option) *WorkerPool {
	wp := &WorkerPool{
		numWorkers: runtime.NumCPU(),
		injector:   queue.NewDeque[*task](),
		logger:     log.DiscardLogger,
		quit:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt.Apply(wp)
	}

	if wp.numWorkers < 1 {
		wp.numWorkers = 1
	}
	return wp
}

// Start spawns the workers. It's safe to call Start multiple times.
func (wp *WorkerPool) Start() {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()
	if wp.started.Load() || wp.stopped.Load() {
		return
	}

	wp.workers = make([]*worker, wp.numWorkers)
	for i := range wp.workers {
		wp.workers[i] = &worker{
			id:    i,
			pool:  wp,
			local: queue.NewDeque[*task](),
			wake:  make(chan struct{}, 1),
		}
	}

	for _, w := range wp.workers {
		wp.wg.Add(1)
		go w.loop()
	}
	wp.started.Store(true)
}

// Stop prevents new submissions, lets the workers finish the queued tasks and
// waits for them to exit or for the context to be done.
func (wp *WorkerPool) Stop(ctx context.Context) error {
	wp.mutex.Lock()
	if !wp.started.Load() || wp.stopped.Swap(true) {
		wp.mutex.Unlock()
		return nil
	}
	close(wp.quit)
	wp.mutex.Unlock()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit schedules fn on the worker owning key. The fault handler, when not nil,
// receives the RuntimeFault built from a panic raised by fn.
func (wp *WorkerPool) Submit(key string, fn func(), onFault FaultHandler) error {
	wp.mutex.RLock()
	defer wp.mutex.RUnlock()
	if !wp.started.Load() {
		return errors.ErrExecutorNotStarted
	}
	if wp.stopped.Load() {
		return errors.ErrExecutorStopped
	}

	t := &task{run: fn, fault: onFault}
	if key == "" {
		wp.injector.Push(t)
		wp.notify(nil)
		return nil
	}

	home := wp.workers[xxh3.HashString(key)%uint64(len(wp.workers))]
	home.local.Push(t)
	wp.notify(home)
	return nil
}

// NumWorkers returns the number of workers
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// Stats returns the number of executed tasks, stolen tasks and recovered panics
func (wp *WorkerPool) Stats() (executed, stolen, panics uint64) {
	return wp.executed.Load(), wp.stolen.Load(), wp.panics.Load()
}

// notify wakes the home worker and one parked peer that can steal from it
func (wp *WorkerPool) notify(home *worker) {
	if home != nil {
		home.signal()
	}

	for _, w := range wp.workers {
		if w != home && w.parked.Load() {
			w.signal()
			return
		}
	}

	if home == nil {
		wp.workers[rand.IntN(len(wp.workers))].signal()
	}
}

func (w *worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *worker) loop() {
	defer w.pool.wg.Done()
	for {
		if t := w.next(); t != nil {
			w.execute(t)
			continue
		}

		w.parked.Store(true)
		if t := w.next(); t != nil {
			w.parked.Store(false)
			w.execute(t)
			continue
		}

		select {
		case <-w.wake:
			w.parked.Store(false)
		case <-w.pool.quit:
			w.parked.Store(false)
			for t := w.next(); t != nil; t = w.next() {
				w.execute(t)
			}
			return
		}
	}
}

// next returns the next task to run: local work first, then the injection
// queue, then work stolen from a peer
func (w *worker) next() *task {
	if t, ok := w.local.Pop(); ok {
		return t
	}

	if t, ok := w.pool.injector.Pop(); ok {
		return t
	}

	workers := w.pool.workers
	n := len(workers)
	if n == 1 {
		return nil
	}

	start := rand.IntN(n)
	for i := 0; i < n; i++ {
		victim := workers[(start+i)%n]
		if victim == w {
			continue
		}

		stolen := victim.local.StealHalf()
		if len(stolen) == 0 {
			continue
		}

		w.pool.stolen.Add(uint64(len(stolen)))
		for _, t := range stolen[1:] {
			w.local.Push(t)
		}
		return stolen[0]
	}
	return nil
}

// execute runs the task behind a recover so that a panicking task never takes
// the worker down
func (w *worker) execute(t *task) {
	defer w.pool.executed.Add(1)
	defer func() {
		if r := recover(); r != nil {
			w.pool.panics.Add(1)
			fault := errors.NewRuntimeFault(r, debug.Stack())
			w.report(t, fault)
		}
	}()
	t.run()
}

func (w *worker) report(t *task, fault *errors.RuntimeFault) {
	if t.fault == nil {
		w.pool.logger.Errorf("worker %d recovered from panic: %v", w.id, fault.Value())
		return
	}

	defer func() {
		if r := recover(); r != nil {
			w.pool.logger.Errorf("worker %d: fault handler panicked: %v", w.id, r)
		}
	}()
	t.fault(fault)
}
