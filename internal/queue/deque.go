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

package queue

import "sync"

// minDequeLen is the smallest capacity that a deque may have.
// Must be power of 2 for bitwise modulus: x % n == x & (n - 1).
const minDequeLen = 16

// Deque is a thread-safe double-ended queue backed by a ring buffer.
// The owner pushes at the back and pops from the front, other goroutines steal from the back.
// reference: https://github.com/eapache/queue
type Deque[T any] struct {
	mu    sync.Mutex
	nodes []T
	head  int
	tail  int
	count int
}

// NewDeque creates an instance of Deque
func NewDeque[T any]() *Deque[T] {
	return &Deque[T]{
		nodes: make([]T, minDequeLen),
	}
}

// Push adds an item to the back of the deque
func (q *Deque[T]) Push(item T) {
	q.mu.Lock()
	if q.count == len(q.nodes) {
		q.resize(q.count << 1)
	}
	q.nodes[q.tail] = item
	// bitwise modulus
	q.tail = (q.tail + 1) & (len(q.nodes) - 1)
	q.count++
	q.mu.Unlock()
}

// Pop removes the item at the front of the deque.
// It returns false when the deque is empty.
func (q *Deque[T]) Pop() (T, bool) {
	var zero T
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return zero, false
	}
	item := q.nodes[q.head]
	q.nodes[q.head] = zero
	q.head = (q.head + 1) & (len(q.nodes) - 1)
	q.count--
	q.shrink()
	return item, true
}

// StealHalf removes up to half of the items, taken from the back of the deque,
// and returns them in their original order.
func (q *Deque[T]) StealHalf() []T {
	var zero T
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil
	}

	n := (q.count + 1) / 2
	stolen := make([]T, n)
	for i := n - 1; i >= 0; i-- {
		q.tail = (q.tail - 1) & (len(q.nodes) - 1)
		stolen[i] = q.nodes[q.tail]
		q.nodes[q.tail] = zero
		q.count--
	}
	q.shrink()
	return stolen
}

// Len return the current length of the deque
func (q *Deque[T]) Len() int {
	q.mu.Lock()
	l := q.count
	q.mu.Unlock()
	return l
}

// IsEmpty returns true when the deque is empty
func (q *Deque[T]) IsEmpty() bool {
	return q.Len() == 0
}

// shrink resizes down when the buffer is 1/4 full
func (q *Deque[T]) shrink() {
	if len(q.nodes) > minDequeLen && (q.count<<2) == len(q.nodes) {
		q.resize(len(q.nodes) >> 1)
	}
}

func (q *Deque[T]) resize(size int) {
	nodes := make([]T, size)
	if q.count > 0 {
		if q.tail > q.head {
			copy(nodes, q.nodes[q.head:q.tail])
		} else {
			n := copy(nodes, q.nodes[q.head:])
			copy(nodes[n:], q.nodes[:q.tail])
		}
	}
	q.tail = q.count & (size - 1)
	q.head = 0
	q.nodes = nodes
}
