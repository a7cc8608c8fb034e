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

// Package eventstream fans values out to in-process subscribers.
//
// Publishing never blocks: a value is appended to the queue of every active
// subscriber whose filter accepts it, and each subscriber drains its queue at
// its own pace.
package eventstream

import (
	"github.com/tochemey/warden/internal/xsync"
)

// Filter selects the values a subscriber receives. A nil filter accepts everything.
type Filter[T any] func(value T) bool

// Stream is a typed fan-out broker
type Stream[T any] struct {
	subscribers *xsync.Map[string, *Subscriber[T]]
}

// New creates a Stream
func New[T any]() *Stream[T] {
	return &Stream[T]{subscribers: xsync.NewMap[string, *Subscriber[T]]()}
}

// Subscribe registers a new subscriber receiving the values accepted by filter
func (s *Stream[T]) Subscribe(filter Filter[T]) *Subscriber[T] {
	subscriber := newSubscriber(filter)
	s.subscribers.Set(subscriber.ID(), subscriber)
	return subscriber
}

// Unsubscribe shuts the subscriber down and forgets it
func (s *Stream[T]) Unsubscribe(subscriber *Subscriber[T]) {
	s.subscribers.Delete(subscriber.ID())
	subscriber.Shutdown()
}

// Len returns the number of registered subscribers
func (s *Stream[T]) Len() int {
	return s.subscribers.Len()
}

// Publish hands value to the active subscribers accepting it.
// A subscriber observes the values of one publisher in publication order.
func (s *Stream[T]) Publish(value T) {
	s.subscribers.Range(func(_ string, subscriber *Subscriber[T]) {
		subscriber.offer(value)
	})
}

// Close shuts every subscriber down
func (s *Stream[T]) Close() {
	for _, subscriber := range s.subscribers.Values() {
		subscriber.Shutdown()
	}
	s.subscribers.Reset()
}
