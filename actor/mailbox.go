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
)

// Mailbox defines the contract for a child's message queue.
//
// Concurrency and ordering
//   - Enqueue is safe for any number of concurrent producers.
//   - Dequeue and Drain are called by a single consumer: the runtime never
//     invokes a child's behavior concurrently with itself.
//   - Messages from one producer are dequeued in the order they were enqueued.
//
// Closing
//   - Close seals the mailbox atomically with respect to Enqueue: an Enqueue that
//     returned nil happened before the seal and its message is still in the queue,
//     and every Enqueue that starts after the seal returns ErrMailboxClosed.
//   - Messages left in a closed mailbox are retrieved with Drain.
type Mailbox interface {
	// Enqueue pushes a message into the mailbox. Bounded implementations suspend
	// the caller while the mailbox is full until a slot frees, ctx is done or the
	// mailbox is closed.
	Enqueue(ctx context.Context, msg *Message) error
	// Dequeue fetches the next message. It returns nil when the mailbox is empty.
	Dequeue() *Message
	// IsEmpty reports whether the mailbox currently has no messages.
	// This is a best-effort snapshot under concurrency.
	IsEmpty() bool
	// Len returns a snapshot of the number of messages in the mailbox.
	Len() int64
	// Close seals the mailbox. It is safe to call Close several times.
	Close()
	// IsClosed reports whether the mailbox has been sealed
	IsClosed() bool
	// Drain removes and returns the messages left in the mailbox in FIFO order
	Drain() []*Message
}

// MailboxProducer creates the mailbox of a new incarnation
type MailboxProducer func() Mailbox
