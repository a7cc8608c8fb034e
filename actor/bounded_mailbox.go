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
	"sync"
	"sync/atomic"

	gods "github.com/Workiva/go-datastructures/queue"
	"golang.org/x/sync/semaphore"

	"github.com/tochemey/warden/errors"
)

// BoundedMailbox is a bounded MPSC mailbox backed by a ring buffer.
//
// Characteristics
//   - Exact capacity: a weighted semaphore holds one permit per free slot.
//     The ring buffer itself rounds its size up to a power of two and never
//     fills up.
//   - Back-pressure: Enqueue suspends the sender while the mailbox is full
//     until a slot frees, the sender's context is done or the mailbox is closed.
//   - Dequeue never blocks and returns nil when the mailbox is empty.
//   - FIFO ordering per producer.
type BoundedMailbox struct {
	underlying *gods.RingBuffer
	slots      *semaphore.Weighted
	capacity   int64

	// seal guards the transition to closed against in-flight producers
	seal   sync.RWMutex
	closed atomic.Bool
	// closing is cancelled on Close to release suspended producers
	closing context.Context
	cancel  context.CancelFunc
}

// enforce compilation error
var _ Mailbox = (*BoundedMailbox)(nil)

// NewBoundedMailbox creates a bounded mailbox with the given capacity.
// A capacity less than one is treated as one.
func NewBoundedMailbox(capacity int) *BoundedMailbox {
	if capacity < 1 {
		capacity = 1
	}

	closing, cancel := context.WithCancel(context.Background())
	return &BoundedMailbox{
		underlying: gods.NewRingBuffer(uint64(capacity)),
		slots:      semaphore.NewWeighted(int64(capacity)),
		capacity:   int64(capacity),
		closing:    closing,
		cancel:     cancel,
	}
}

// Enqueue inserts a message into the mailbox.
//
// Semantics
//   - Returns immediately when a slot is free.
//   - Suspends while the mailbox is full. The wait ends with ctx.Err() when ctx is
//     done, or with ErrMailboxClosed when the mailbox is closed meanwhile.
//   - Returns ErrMailboxClosed once the mailbox has been closed.
func (mailbox *BoundedMailbox) Enqueue(ctx context.Context, msg *Message) error {
	if mailbox.closed.Load() {
		return errors.ErrMailboxClosed
	}

	if !mailbox.slots.TryAcquire(1) {
		waitCtx, cancel := context.WithCancel(ctx)
		stop := context.AfterFunc(mailbox.closing, cancel)
		err := mailbox.slots.Acquire(waitCtx, 1)
		stop()
		cancel()
		if err != nil {
			if mailbox.closed.Load() {
				return errors.ErrMailboxClosed
			}
			return err
		}
	}

	mailbox.seal.RLock()
	defer mailbox.seal.RUnlock()
	if mailbox.closed.Load() {
		mailbox.slots.Release(1)
		return errors.ErrMailboxClosed
	}

	if err := mailbox.underlying.Put(msg); err != nil {
		mailbox.slots.Release(1)
		return errors.ErrMailboxClosed
	}
	return nil
}

// Dequeue removes and returns the next message from the mailbox.
// It returns nil when the mailbox is empty.
func (mailbox *BoundedMailbox) Dequeue() *Message {
	if mailbox.underlying.Len() == 0 {
		return nil
	}

	item, err := mailbox.underlying.Get()
	if err != nil {
		return nil
	}

	mailbox.slots.Release(1)
	msg, _ := item.(*Message)
	return msg
}

// IsEmpty reports whether the mailbox currently has no messages
func (mailbox *BoundedMailbox) IsEmpty() bool {
	return mailbox.underlying.Len() == 0
}

// Len returns the current number of messages in the mailbox
func (mailbox *BoundedMailbox) Len() int64 {
	return int64(mailbox.underlying.Len())
}

// Capacity returns the capacity of the mailbox
func (mailbox *BoundedMailbox) Capacity() int64 {
	return mailbox.capacity
}

// Close seals the mailbox and releases the producers suspended on a full mailbox
func (mailbox *BoundedMailbox) Close() {
	mailbox.seal.Lock()
	mailbox.closed.Store(true)
	mailbox.seal.Unlock()
	mailbox.cancel()
}

// IsClosed reports whether the mailbox has been closed
func (mailbox *BoundedMailbox) IsClosed() bool {
	return mailbox.closed.Load()
}

// Drain removes the remaining messages and disposes the ring buffer.
// It must only be called once the mailbox is closed.
func (mailbox *BoundedMailbox) Drain() []*Message {
	messages := make([]*Message, 0, mailbox.underlying.Len())
	for msg := mailbox.Dequeue(); msg != nil; msg = mailbox.Dequeue() {
		messages = append(messages, msg)
	}

	if mailbox.closed.Load() {
		mailbox.underlying.Dispose()
	}
	return messages
}
