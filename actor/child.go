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
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowchartsman/retry"

	gerrors "github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/internal/queue"
	"github.com/tochemey/warden/log"
)

// Child is a structural slot of a ChildrenGroup.
//
// A slot outlives the incarnations that run in it: every (re)start creates a new
// incarnation with a fresh ID, a fresh behavior from the factory and a fresh
// mailbox, while the slot keeps its index. Messages sent to a Child always reach
// its current incarnation, so references to a slot stay valid across restarts.
type Child struct {
	group    *ChildrenGroup
	index    int
	current  atomic.Pointer[incarnation]
	failures atomic.Uint32
	// removed takes the slot out of the live set. A retired slot can be revived
	// when its whole group restarts.
	removed atomic.Bool
	// stopped marks a slot ended on request. It is never revived.
	stopped atomic.Bool
}

func newChild(group *ChildrenGroup, index int) *Child {
	return &Child{group: group, index: index}
}

// ID returns the identifier of the current incarnation.
// It changes on every restart.
func (c *Child) ID() ID {
	if inc := c.current.Load(); inc != nil {
		return inc.id
	}
	return NoID
}

// Index returns the slot index within the group
func (c *Child) Index() int {
	return c.index
}

// Group returns the group owning the slot
func (c *Child) Group() *ChildrenGroup {
	return c.group
}

// State returns the state of the current incarnation
func (c *Child) State() State {
	if inc := c.current.Load(); inc != nil {
		return inc.getState()
	}
	return Stopped
}

// IsRunning reports whether the current incarnation processes messages
func (c *Child) IsRunning() bool {
	return c.State() == Running
}

// String returns the slot path
func (c *Child) String() string {
	return fmt.Sprintf("%s[%d]", c.group.name, c.index)
}

// Tell sends a direct message carrying payload to the child
func (c *Child) Tell(ctx context.Context, payload any) error {
	return c.Send(ctx, NewMessage(payload))
}

// Send enqueues the message into the mailbox of the current incarnation.
//
// A message sent while the child is being restarted is handed to the next
// incarnation. Send returns ErrMailboxClosed only once the slot is stopped for
// good. On a full bounded mailbox Send suspends until a slot frees or ctx is done.
func (c *Child) Send(ctx context.Context, msg *Message) error {
	for {
		inc := c.current.Load()
		if inc == nil {
			return gerrors.ErrMailboxClosed
		}

		err := inc.mailbox.Enqueue(ctx, msg)
		if err == nil {
			inc.schedule()
			return nil
		}

		if !errors.Is(err, gerrors.ErrMailboxClosed) {
			return err
		}

		select {
		case <-inc.superseded:
			if c.current.Load() == inc {
				return gerrors.ErrMailboxClosed
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop stops the child for good. Its supervisor will not restart it.
// The current incarnation finishes the message in progress and, depending on the
// drain policy, its pending messages. It is reclaimed when it does not stop
// within the configured stop timeout. Stopping a stopped child is a no-op.
//
// Called by the child itself with the context of its ReceiveContext, Stop only
// requests the stop, like ReceiveContext.Stop, and returns without waiting.
func (c *Child) Stop(ctx context.Context) error {
	owner := c.group.owner
	var inc *incarnation
	err := owner.call(ctx, func() {
		c.markStopped()
		inc = c.current.Load()
	})

	switch {
	case err == nil:
	case errors.Is(err, gerrors.ErrSupervisorStopped):
		c.markStopped()
		inc = c.current.Load()
	default:
		return err
	}

	if inc == nil {
		return nil
	}

	config := owner.system.config
	if inc.runsIn(ctx) {
		inc.requestStop(haltMode{voluntary: true, drain: config.drainOnStop})
		return nil
	}

	err = inc.halt(haltMode{drain: config.drainOnStop, timeout: config.stopTimeout})
	c.retire(inc)
	return err
}

func (c *Child) markStopped() {
	c.stopped.Store(true)
	c.removed.Store(true)
}

// retire takes the slot out of the live set once its incarnation ended
func (c *Child) retire(inc *incarnation) {
	c.removed.Store(true)
	inc.system.registry.CompareAndDelete(inc.id, func(child *Child) bool { return child == c })
	inc.supersede()
}

// publish replaces the current incarnation of the slot
func (c *Child) publish(inc *incarnation) *incarnation {
	previous := c.current.Swap(inc)
	inc.system.registry.Set(inc.id, c)
	if previous != nil {
		inc.system.registry.CompareAndDelete(previous.id, func(child *Child) bool { return child == c })
		previous.supersede()
	}
	return previous
}

// haltMode tells how an incarnation is stopped
type haltMode struct {
	// restart keeps the pending messages for the next incarnation
	restart bool
	// drain processes the pending messages before stopping
	drain bool
	// voluntary marks a stop requested by the behavior itself
	voluntary bool
	timeout   time.Duration
}

// incarnation is one run of a child: a behavior instance, its mailbox and its state
type incarnation struct {
	id       ID
	key      string
	child    *Child
	system   *System
	behavior Actor
	mailbox  Mailbox
	// backlog holds the messages accepted before the incarnation existed.
	// It is consumed ahead of the mailbox.
	backlog *queue.Mpsc[*Message]
	logger  log.Logger

	state atomic.Int32
	busy  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	mode       atomic.Pointer[haltMode]
	finishing  atomic.Bool
	terminated atomic.Bool
	forced     atomic.Bool

	// done is closed once the incarnation reached its final state
	done chan struct{}
	// superseded is closed once a successor is published or the slot is retired
	superseded    chan struct{}
	supersedeOnce sync.Once
}

func newIncarnation(child *Child) *incarnation {
	system := child.group.owner.system
	id := newID()
	inc := &incarnation{
		id:         id,
		key:        id.String(),
		child:      child,
		system:     system,
		done:       make(chan struct{}),
		superseded: make(chan struct{}),
		backlog:    queue.NewMpsc[*Message](),
		logger:     system.logger.With("child", id.String(), "slot", child.String()),
	}
	inc.ctx, inc.cancel = context.WithCancel(context.WithValue(system.ctx, incarnationKey{}, inc))
	inc.state.Store(int32(Starting))
	inc.mailbox = child.group.newMailbox(inc)
	return inc
}

type incarnationKey struct{}

// runsIn reports whether ctx derives from the context of the incarnation
func (x *incarnation) runsIn(ctx context.Context) bool {
	owner, _ := ctx.Value(incarnationKey{}).(*incarnation)
	return owner == x
}

func (x *incarnation) getState() State {
	return State(x.state.Load())
}

// moveTo performs a legal state transition and emits it
func (x *incarnation) moveTo(to State) (State, bool) {
	for {
		from := x.getState()
		if !canTransition(from, to) {
			return from, false
		}
		if x.state.CompareAndSwap(int32(from), int32(to)) {
			x.system.trackLive(from, to)
			x.emit(Event{Kind: EventTransition, From: from, To: to})
			return from, true
		}
	}
}

func (x *incarnation) emit(event Event) {
	event.Child = x.id
	event.Slot = x.child.index
	event.Group = x.child.group.name
	event.Supervisor = x.child.group.owner.name
	x.system.emit(event)
}

// start produces the behavior and runs PreStart. It runs on the supervisor loop.
func (x *incarnation) start() {
	behavior, err := x.produce()
	if err == nil {
		x.behavior = behavior
		err = x.preStart()
	}

	if err != nil {
		x.fail(gerrors.NewFactoryError(err))
		return
	}

	// a stop requested while starting is carried out by the next invocation
	x.moveTo(Running)
	x.schedule()
}

func (x *incarnation) produce() (behavior Actor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("factory panicked: %v", r)
		}
	}()

	behavior, err = x.child.group.factory()
	if err == nil && behavior == nil {
		err = fmt.Errorf("factory of %s returned no behavior", x.child.group.name)
	}
	return behavior, err
}

func (x *incarnation) preStart() error {
	config := x.system.config
	ctx, cancel := context.WithTimeout(x.ctx, config.initTimeout)
	defer cancel()

	retrier := retry.NewRetrier(config.initMaxRetries, 100*time.Millisecond, config.initTimeout)
	return retrier.RunContext(ctx, func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("PreStart panicked: %v", r)
			}
		}()
		return x.behavior.PreStart(ctx)
	})
}

// schedule submits an invocation unless one is already pending or running
func (x *incarnation) schedule() {
	if !x.busy.CompareAndSwap(false, true) {
		return
	}

	if err := x.system.pool.Submit(x.key, x.run, x.onPanic); err != nil {
		x.busy.Store(false)
		if x.getState() == Stopping {
			x.finishStop()
		}
	}
}

// release ends an invocation and schedules the next one when there is work left
func (x *incarnation) release() {
	x.busy.Store(false)
	switch x.getState() {
	case Running:
		if x.pending() > 0 {
			x.schedule()
		}
	case Stopping:
		x.schedule()
	default:
	}
}

// run is one invocation: it handles at most one message
func (x *incarnation) run() {
	switch x.getState() {
	case Running:
		if msg := x.next(); msg != nil {
			if !x.process(msg) {
				return
			}
		}
	case Stopping:
		if mode := x.mode.Load(); mode != nil && mode.drain && x.behavior != nil {
			if msg := x.next(); msg != nil {
				if !x.process(msg) {
					return
				}
				x.release()
				return
			}
		}
		x.finishStop()
		return
	default:
	}
	x.release()
}

// process hands a message to the behavior. It returns false when the behavior faulted.
func (x *incarnation) process(msg *Message) bool {
	rctx := newReceiveContext(x, msg)
	x.behavior.Receive(rctx)

	if rctx.err != nil {
		x.fail(gerrors.NewRuntimeFault(rctx.err, nil))
		return false
	}

	if x.child.current.Load() == x {
		x.child.failures.Store(0)
	}

	if rctx.stop {
		x.requestStop(haltMode{voluntary: true, drain: x.system.config.drainOnStop})
	}
	return true
}

// onPanic receives the fault recovered by the worker pool
func (x *incarnation) onPanic(fault *gerrors.RuntimeFault) {
	x.fail(fault)
}

// fail moves the incarnation to Faulted and reports the fault to the supervisor.
// A fault raised while stopping ends the stop instead.
func (x *incarnation) fail(err error) {
	if _, ok := x.moveTo(Faulted); !ok {
		if x.getState() == Stopping {
			x.logger.Warnf("fault while stopping: %v", err)
			x.finishStop()
		}
		return
	}

	x.emit(Event{Kind: EventFault, To: Faulted, Err: err})
	x.child.group.owner.signal(&faultSignal{supervisionSignal: newSupervisionSignal(err), child: x.child, inc: x})
}

// requestStop asks a starting or running incarnation to stop.
// It returns false when the incarnation is neither.
func (x *incarnation) requestStop(mode haltMode) bool {
	x.mode.CompareAndSwap(nil, &mode)
	if _, ok := x.moveTo(Stopping); ok {
		x.schedule()
		return true
	}
	return x.getState() == Stopping
}

// finishStop runs PostStop and ends a stopping incarnation.
// It runs on the invocation path, never concurrently with Receive.
func (x *incarnation) finishStop() {
	if !x.finishing.CompareAndSwap(false, true) {
		return
	}

	x.mailbox.Close()
	x.postStop()

	mode := x.mode.Load()
	if mode == nil || !mode.restart {
		x.dropPending()
	}

	x.terminate(Stopped)
	if mode != nil && mode.voluntary {
		x.child.markStopped()
		x.child.retire(x)
	}
}

// finishFaulted ends a faulted incarnation. No invocation runs at that point.
func (x *incarnation) finishFaulted(restart bool) bool {
	if !x.finishing.CompareAndSwap(false, true) {
		return false
	}

	x.mailbox.Close()
	x.postStop()
	if !restart {
		x.dropPending()
		x.terminate(Stopped)
		return true
	}
	x.terminate(Restarting)
	return true
}

func (x *incarnation) postStop() {
	if x.behavior == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			x.logger.Errorf("PostStop panicked: %v", r)
		}
	}()

	if err := x.behavior.PostStop(x.ctx); err != nil {
		x.logger.Warnf("PostStop failed: %v", err)
	}
}

func (x *incarnation) dropPending() {
	if dropped := x.remaining(); len(dropped) > 0 {
		x.emit(Event{Kind: EventDropped, Count: int64(len(dropped))})
	}
}

// terminate moves the incarnation to its final state once
func (x *incarnation) terminate(to State) bool {
	if !x.terminated.CompareAndSwap(false, true) {
		return false
	}

	x.cancel()
	x.moveTo(to)
	close(x.done)
	return true
}

// abandon reclaims an incarnation that did not stop in time. The invocation in
// progress, if any, is left to finish on its own and its mailbox is dropped.
func (x *incarnation) abandon(timeout time.Duration) error {
	x.forced.Store(true)
	x.finishing.Store(true)
	x.mailbox.Close()
	if !x.terminate(Stopped) {
		return nil
	}

	if pending := x.pending(); pending > 0 {
		x.emit(Event{Kind: EventDropped, Count: pending})
	}

	err := gerrors.NewShutdownTimeoutError(x.child.String(), timeout)
	x.emit(Event{Kind: EventShutdownTimeout, Err: err})
	return err
}

// halt stops the incarnation and waits for it to end. It returns a
// ShutdownTimeoutError when the incarnation had to be reclaimed.
func (x *incarnation) halt(mode haltMode) error {
	// beginHalt only fails while a concurrent transition is in flight
	for !x.beginHalt(mode) {
		runtime.Gosched()
	}

	timer := time.NewTimer(mode.timeout)
	defer timer.Stop()

	select {
	case <-x.done:
		return nil
	case <-timer.C:
		return x.abandon(mode.timeout)
	}
}

// beginHalt starts ending the incarnation. It returns false when the state
// changed under it and the caller must try again.
func (x *incarnation) beginHalt(mode haltMode) bool {
	switch x.getState() {
	case Faulted:
		// false means a concurrent halt is already ending it
		x.finishFaulted(mode.restart)
		return true
	case Starting, Running, Stopping:
		return x.requestStop(mode)
	default:
		return true
	}
}

// leftovers returns the messages to carry over to the next incarnation
func (x *incarnation) leftovers() []*Message {
	if x.forced.Load() || !x.terminated.Load() {
		return nil
	}
	return x.remaining()
}

// next returns the next message to process, backlog first
func (x *incarnation) next() *Message {
	if msg, ok := x.backlog.Pop(); ok {
		return msg
	}
	return x.mailbox.Dequeue()
}

// pending returns the number of messages waiting to be processed
func (x *incarnation) pending() int64 {
	return x.backlog.Len() + x.mailbox.Len()
}

// remaining removes the unprocessed messages in processing order
func (x *incarnation) remaining() []*Message {
	var messages []*Message
	for msg, ok := x.backlog.Pop(); ok; msg, ok = x.backlog.Pop() {
		messages = append(messages, msg)
	}
	return append(messages, x.mailbox.Drain()...)
}

func (x *incarnation) supersede() {
	x.supersedeOnce.Do(func() {
		close(x.superseded)
	})
}
