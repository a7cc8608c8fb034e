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

	"github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/internal/queue"
)

// WatermarkFunc is called when an unbounded mailbox grows past its high watermark
type WatermarkFunc func(length int64)

// UnboundedMailbox is a lock-free multi-producer, single-consumer FIFO mailbox.
//
// It never rejects a message while open. When a high watermark is configured the
// watermark callback fires once each time the length crosses it, and re-arms
// when the consumer brings the length back under the watermark.
//
// The zero value is not ready for use; always construct via NewUnboundedMailbox.
type UnboundedMailbox struct {
	underlying *queue.Mpsc[*Message]

	seal   sync.RWMutex
	closed atomic.Bool

	highWatermark int64
	onHigh        WatermarkFunc
	above         atomic.Bool
}

// enforces compilation error
var _ Mailbox = (*UnboundedMailbox)(nil)

// NewUnboundedMailbox returns a new unbounded mailbox. A highWatermark of zero
// disables the watermark warning.
func NewUnboundedMailbox(highWatermark int64, onHigh WatermarkFunc) *UnboundedMailbox {
	return &UnboundedMailbox{
		underlying:    queue.NewMpsc[*Message](),
		highWatermark: highWatermark,
		onHigh:        onHigh,
	}
}

// Enqueue appends the message to the tail of the mailbox. It never blocks.
// The context is not used and is part of the signature to satisfy Mailbox.
func (m *UnboundedMailbox) Enqueue(_ context.Context, msg *Message) error {
	m.seal.RLock()
	if m.closed.Load() {
		m.seal.RUnlock()
		return errors.ErrMailboxClosed
	}
	m.underlying.Push(msg)
	m.seal.RUnlock()

	if m.highWatermark > 0 {
		if length := m.underlying.Len(); length >= m.highWatermark && m.above.CompareAndSwap(false, true) && m.onHigh != nil {
			m.onHigh(length)
		}
	}
	return nil
}

// Dequeue removes and returns the message at the head of the mailbox.
// It returns nil when the mailbox is empty.
func (m *UnboundedMailbox) Dequeue() *Message {
	msg, ok := m.underlying.Pop()
	if !ok {
		return nil
	}

	if m.highWatermark > 0 && m.underlying.Len() < m.highWatermark {
		m.above.Store(false)
	}
	return msg
}

// Len returns the number of messages currently in the mailbox
func (m *UnboundedMailbox) Len() int64 {
	return max(m.underlying.Len(), 0)
}

// IsEmpty reports whether the mailbox currently holds no messages
func (m *UnboundedMailbox) IsEmpty() bool {
	return m.underlying.Len() <= 0
}

// Close seals the mailbox
func (m *UnboundedMailbox) Close() {
	m.seal.Lock()
	m.closed.Store(true)
	m.seal.Unlock()
}

// IsClosed reports whether the mailbox has been closed
func (m *UnboundedMailbox) IsClosed() bool {
	return m.closed.Load()
}

// Drain removes and returns the remaining messages
func (m *UnboundedMailbox) Drain() []*Message {
	var messages []*Message
	for msg := m.Dequeue(); msg != nil; msg = m.Dequeue() {
		messages = append(messages, msg)
	}
	return messages
}
