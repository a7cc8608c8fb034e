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
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/warden/errors"
)

func TestUnboundedMailbox(t *testing.T) {
	t.Run("With FIFO order", func(t *testing.T) {
		mailbox := NewUnboundedMailbox(0, nil)
		ctx := context.Background()
		for i := range 10 {
			require.NoError(t, mailbox.Enqueue(ctx, NewMessage(sequence{n: i})))
		}
		assert.EqualValues(t, 10, mailbox.Len())

		for i := range 10 {
			msg := mailbox.Dequeue()
			require.NotNil(t, msg)
			assert.Equal(t, sequence{n: i}, msg.Payload())
		}
		assert.True(t, mailbox.IsEmpty())
		assert.Nil(t, mailbox.Dequeue())
	})
	t.Run("With multiple producers", func(t *testing.T) {
		producers := 4
		perProducer := 250
		expected := producers * perProducer
		mailbox := NewUnboundedMailbox(0, nil)

		var wg sync.WaitGroup
		wg.Add(producers)
		for range producers {
			go func() {
				defer wg.Done()
				for i := range perProducer {
					_ = mailbox.Enqueue(context.Background(), NewMessage(i))
				}
			}()
		}

		count := 0
		for count < expected {
			if mailbox.Dequeue() == nil {
				runtime.Gosched()
				continue
			}
			count++
		}
		wg.Wait()
		assert.True(t, mailbox.IsEmpty())
	})
	t.Run("With closed mailbox", func(t *testing.T) {
		mailbox := NewUnboundedMailbox(0, nil)
		require.NoError(t, mailbox.Enqueue(context.Background(), NewMessage(ping{})))
		mailbox.Close()
		assert.True(t, mailbox.IsClosed())

		err := mailbox.Enqueue(context.Background(), NewMessage(ping{}))
		require.ErrorIs(t, err, gerrors.ErrMailboxClosed)

		leftovers := mailbox.Drain()
		assert.Len(t, leftovers, 1)
		assert.True(t, mailbox.IsEmpty())
	})
	t.Run("With high watermark", func(t *testing.T) {
		var crossings []int64
		mailbox := NewUnboundedMailbox(3, func(length int64) {
			crossings = append(crossings, length)
		})

		ctx := context.Background()
		for range 5 {
			require.NoError(t, mailbox.Enqueue(ctx, NewMessage(ping{})))
		}
		// the watermark fires once per crossing
		assert.Equal(t, []int64{3}, crossings)

		for range 4 {
			require.NotNil(t, mailbox.Dequeue())
		}
		for range 2 {
			require.NoError(t, mailbox.Enqueue(ctx, NewMessage(ping{})))
		}
		assert.Equal(t, []int64{3, 3}, crossings)
	})
}

func TestBoundedMailbox(t *testing.T) {
	t.Run("With FIFO order", func(t *testing.T) {
		mailbox := NewBoundedMailbox(4)
		ctx := context.Background()
		for i := range 4 {
			require.NoError(t, mailbox.Enqueue(ctx, NewMessage(sequence{n: i})))
		}
		assert.EqualValues(t, 4, mailbox.Len())
		assert.EqualValues(t, 4, mailbox.Capacity())

		for i := range 4 {
			msg := mailbox.Dequeue()
			require.NotNil(t, msg)
			assert.Equal(t, sequence{n: i}, msg.Payload())
		}
		assert.True(t, mailbox.IsEmpty())
		assert.Nil(t, mailbox.Dequeue())
	})
	t.Run("With invalid capacity", func(t *testing.T) {
		mailbox := NewBoundedMailbox(0)
		assert.EqualValues(t, 1, mailbox.Capacity())
	})
	t.Run("With full mailbox the producer suspends", func(t *testing.T) {
		mailbox := NewBoundedMailbox(1)
		require.NoError(t, mailbox.Enqueue(context.Background(), NewMessage(sequence{n: 1})))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := mailbox.Enqueue(ctx, NewMessage(sequence{n: 2}))
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.EqualValues(t, 1, mailbox.Len())

		enqueued := make(chan error, 1)
		go func() {
			enqueued <- mailbox.Enqueue(context.Background(), NewMessage(sequence{n: 3}))
		}()

		select {
		case <-enqueued:
			require.FailNow(t, "the producer should be suspended")
		case <-time.After(50 * time.Millisecond):
		}

		msg := mailbox.Dequeue()
		require.NotNil(t, msg)
		assert.Equal(t, sequence{n: 1}, msg.Payload())

		select {
		case err := <-enqueued:
			require.NoError(t, err)
		case <-time.After(time.Second):
			require.FailNow(t, "the producer should have resumed")
		}

		msg = mailbox.Dequeue()
		require.NotNil(t, msg)
		assert.Equal(t, sequence{n: 3}, msg.Payload())
	})
	t.Run("With close releasing suspended producers", func(t *testing.T) {
		mailbox := NewBoundedMailbox(1)
		require.NoError(t, mailbox.Enqueue(context.Background(), NewMessage(ping{})))

		enqueued := make(chan error, 1)
		go func() {
			enqueued <- mailbox.Enqueue(context.Background(), NewMessage(ping{}))
		}()

		time.Sleep(20 * time.Millisecond)
		mailbox.Close()

		select {
		case err := <-enqueued:
			require.ErrorIs(t, err, gerrors.ErrMailboxClosed)
		case <-time.After(time.Second):
			require.FailNow(t, "the producer should have been released")
		}

		assert.True(t, mailbox.IsClosed())
		assert.Len(t, mailbox.Drain(), 1)
		require.ErrorIs(t, mailbox.Enqueue(context.Background(), NewMessage(ping{})), gerrors.ErrMailboxClosed)
	})
}
