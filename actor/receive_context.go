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
	"time"

	"github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/log"
)

// ReceiveContext carries the message being handled and the operations available
// to a behavior while it handles it.
//
// A ReceiveContext is created by the runtime for each delivered message and is
// only valid within the scope of handling that message. Do not retain it beyond
// the current Receive call.
//
// Example:
//
//	func (a *Counter) Receive(ctx *actor.ReceiveContext) {
//	    switch msg := ctx.Payload().(type) {
//	    case *Increment:
//	        a.count += msg.By
//	    case *Report:
//	        _ = ctx.Tell(msg.To, a.count)
//	    default:
//	        ctx.Err(fmt.Errorf("unexpected message %s", ctx.Message().Tag()))
//	    }
//	}
type ReceiveContext struct {
	inc     *incarnation
	message *Message
	err     error
	stop    bool
}

func newReceiveContext(inc *incarnation, message *Message) *ReceiveContext {
	return &ReceiveContext{inc: inc, message: message}
}

// Context returns the context of the running incarnation. It is cancelled when
// the incarnation ends.
func (rctx *ReceiveContext) Context() context.Context {
	return rctx.inc.ctx
}

// Message returns the message being handled
func (rctx *ReceiveContext) Message() *Message {
	return rctx.message
}

// Payload returns the payload of the message being handled
func (rctx *ReceiveContext) Payload() any {
	return rctx.message.Payload()
}

// Sender returns the ID of the sender when the message carries one
func (rctx *ReceiveContext) Sender() (ID, bool) {
	return rctx.message.Sender()
}

// Self returns the slot of the running child
func (rctx *ReceiveContext) Self() *Child {
	return rctx.inc.child
}

// ID returns the ID of the running incarnation
func (rctx *ReceiveContext) ID() ID {
	return rctx.inc.id
}

// System returns the system the child runs in
func (rctx *ReceiveContext) System() *System {
	return rctx.inc.system
}

// Logger returns the logger of the running incarnation
func (rctx *ReceiveContext) Logger() log.Logger {
	return rctx.inc.logger
}

// Tell sends payload to the target child with the running incarnation as sender.
// It suspends while the target's bounded mailbox is full.
func (rctx *ReceiveContext) Tell(target *Child, payload any) error {
	return target.Send(rctx.inc.ctx, NewMessage(payload, WithSender(rctx.inc.id)))
}

// Reply sends payload to the sender of the current message.
// It returns ErrChildNotFound when the message has no sender or the sender is
// no longer running.
func (rctx *ReceiveContext) Reply(payload any) error {
	sender, ok := rctx.message.Sender()
	if !ok {
		return errors.NewErrChildNotFound("message has no sender")
	}
	return rctx.inc.system.send(rctx.inc.ctx, sender, NewMessage(payload, WithSender(rctx.inc.id)))
}

// ScheduleOnce delivers payload to the running child after delay.
// It returns the reference of the scheduled delivery.
func (rctx *ReceiveContext) ScheduleOnce(payload any, delay time.Duration) (string, error) {
	return rctx.inc.system.ScheduleOnce(rctx.inc.ctx, payload, rctx.inc.child, delay)
}

// Err reports an error fault. The child is faulted once Receive returns and its
// supervisor applies its restart policy.
func (rctx *ReceiveContext) Err(err error) {
	rctx.err = err
}

// Stop stops the child once Receive returns. A child that stops on its own is
// not restarted.
func (rctx *ReceiveContext) Stop() {
	rctx.stop = true
}
