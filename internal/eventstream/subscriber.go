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

package eventstream

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/tochemey/warden/internal/queue"
)

// Subscriber accumulates the values published to a Stream until drained
type Subscriber[T any] struct {
	id      string
	filter  Filter[T]
	values  *queue.Mpsc[T]
	ready   chan struct{}
	active  *atomic.Bool
	drainMu sync.Mutex
}

func newSubscriber[T any](filter Filter[T]) *Subscriber[T] {
	return &Subscriber[T]{
		id:     uuid.NewString(),
		filter: filter,
		values: queue.NewMpsc[T](),
		ready:  make(chan struct{}, 1),
		active: atomic.NewBool(true),
	}
}

// ID returns the subscriber identifier
func (x *Subscriber[T]) ID() string {
	return x.id
}

// Active reports whether the subscriber still receives values
func (x *Subscriber[T]) Active() bool {
	return x.active.Load()
}

// Ready is signaled when values are pending. A single signal may stand for
// several values.
func (x *Subscriber[T]) Ready() <-chan struct{} {
	return x.ready
}

// Drain returns the pending values in arrival order.
// It returns nothing once the subscriber is shut down.
func (x *Subscriber[T]) Drain() []T {
	x.drainMu.Lock()
	defer x.drainMu.Unlock()

	var values []T
	for x.active.Load() {
		value, ok := x.values.Pop()
		if !ok {
			break
		}
		values = append(values, value)
	}
	return values
}

// Shutdown stops the delivery of values
func (x *Subscriber[T]) Shutdown() {
	x.active.Store(false)
}

func (x *Subscriber[T]) offer(value T) {
	if !x.active.Load() {
		return
	}

	if x.filter != nil && !x.filter(value) {
		return
	}

	x.values.Push(value)
	select {
	case x.ready <- struct{}{}:
	default:
	}
}
