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
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/supervisor"
)

// ChildrenOption configures a children group
type ChildrenOption func(*childrenConfig)

type childrenConfig struct {
	name    string
	mailbox MailboxProducer
	initial *Message
}

// WithGroupName sets the name of the group
func WithGroupName(name string) ChildrenOption {
	return func(config *childrenConfig) {
		config.name = name
	}
}

// WithMailbox sets the producer of the members' mailboxes
func WithMailbox(producer MailboxProducer) ChildrenOption {
	return func(config *childrenConfig) {
		config.mailbox = producer
	}
}

// WithBoundedMailbox gives every member a bounded mailbox of the given capacity
func WithBoundedMailbox(capacity int) ChildrenOption {
	return func(config *childrenConfig) {
		config.mailbox = func() Mailbox { return NewBoundedMailbox(capacity) }
	}
}

// WithInitialMessage sets a message delivered first to every new incarnation,
// on the initial spawn and on every restart.
func WithInitialMessage(payload any) ChildrenOption {
	return func(config *childrenConfig) {
		config.initial = NewMessage(payload)
	}
}

// ChildrenGroup is a homogeneous set of children spawned from one factory.
// Its members share a restart policy and are addressed by slot.
type ChildrenGroup struct {
	name     string
	owner    *Supervisor
	factory  Factory
	policy   supervisor.RestartPolicy
	mailbox  MailboxProducer
	initial  *Message
	members  []*Child
	next     atomic.Uint64
	detached atomic.Bool
}

func newChildrenGroup(owner *Supervisor, factory Factory, count int, policy supervisor.RestartPolicy, config *childrenConfig) *ChildrenGroup {
	group := &ChildrenGroup{
		name:    config.name,
		owner:   owner,
		factory: factory,
		policy:  policy,
		mailbox: config.mailbox,
		initial: config.initial,
		members: make([]*Child, count),
	}

	for i := range group.members {
		group.members[i] = newChild(group, i)
	}
	return group
}

// Name returns the group name
func (g *ChildrenGroup) Name() string {
	return g.name
}

// Len returns the number of slots of the group
func (g *ChildrenGroup) Len() int {
	return len(g.members)
}

// Policy returns the restart policy of the group
func (g *ChildrenGroup) Policy() supervisor.RestartPolicy {
	return g.policy
}

// Supervisor returns the supervisor owning the group
func (g *ChildrenGroup) Supervisor() *Supervisor {
	return g.owner
}

// Members returns the slots that are neither stopped nor retired
func (g *ChildrenGroup) Members() []*Child {
	members := make([]*Child, 0, len(g.members))
	for _, member := range g.members {
		if !member.removed.Load() {
			members = append(members, member)
		}
	}
	return members
}

// revivable returns the slots a group restart brings back: every slot
// except those stopped on request
func (g *ChildrenGroup) revivable() []*Child {
	members := make([]*Child, 0, len(g.members))
	for _, member := range g.members {
		if !member.stopped.Load() {
			members = append(members, member)
		}
	}
	return members
}

// Slot returns the child at index i
func (g *ChildrenGroup) Slot(i int) (*Child, error) {
	if i < 0 || i >= len(g.members) {
		return nil, gerrors.ErrInvalidSlot
	}
	return g.members[i], nil
}

// Tell sends payload to the child at index slot
func (g *ChildrenGroup) Tell(ctx context.Context, slot int, payload any) error {
	child, err := g.Slot(slot)
	if err != nil {
		return err
	}
	return child.Tell(ctx, payload)
}

// TellAny sends payload to one member, picked round-robin among the live members
func (g *ChildrenGroup) TellAny(ctx context.Context, payload any) error {
	members := g.Members()
	if len(members) == 0 {
		return gerrors.ErrMailboxClosed
	}

	start := g.next.Add(1) - 1
	for i := range members {
		member := members[(start+uint64(i))%uint64(len(members))]
		err := member.Tell(ctx, payload)
		if err == nil || !errors.Is(err, gerrors.ErrMailboxClosed) {
			return err
		}
	}
	return gerrors.ErrMailboxClosed
}

// Broadcast sends a copy of payload to every live member.
// Members stopped meanwhile are skipped.
func (g *ChildrenGroup) Broadcast(ctx context.Context, payload any) error {
	return g.broadcast(ctx, NewMessage(payload, WithDelivery(Broadcast)))
}

func (g *ChildrenGroup) broadcast(ctx context.Context, msg *Message) error {
	eg := new(errgroup.Group)
	for _, member := range g.Members() {
		eg.Go(func() error {
			if err := member.Send(ctx, msg.withDelivery(Broadcast)); err != nil && !errors.Is(err, gerrors.ErrMailboxClosed) {
				return err
			}
			return nil
		})
	}
	return eg.Wait()
}

// Stop detaches the group from its supervisor and stops every member, waiting
// for each of them up to the stop timeout. Members that had to be reclaimed are
// reported with a ShutdownTimeoutError.
func (g *ChildrenGroup) Stop(ctx context.Context) error {
	err := g.owner.call(ctx, func() {
		g.owner.detachGroup(g)
	})
	if err != nil && !errors.Is(err, gerrors.ErrSupervisorStopped) {
		return err
	}

	g.detached.Store(true)
	config := g.owner.system.config
	return g.halt(g.members, haltMode{drain: config.drainOnStop, timeout: config.stopTimeout})
}

// halt stops the given slots concurrently. Outside of a restart the slots are retired.
func (g *ChildrenGroup) halt(slots []*Child, mode haltMode) error {
	var (
		mu   sync.Mutex
		errs error
	)

	eg := new(errgroup.Group)
	for _, member := range slots {
		inc := member.current.Load()
		if inc == nil {
			continue
		}

		eg.Go(func() error {
			err := inc.halt(mode)
			if !mode.restart {
				member.retire(inc)
			}

			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = eg.Wait()
	return errs
}

// spawn starts every slot concurrently
func (g *ChildrenGroup) spawn() {
	eg := new(errgroup.Group)
	for _, member := range g.members {
		eg.Go(func() error {
			g.spawnSlot(member, nil, Stopped, EventSpawned)
			return nil
		})
	}
	_ = eg.Wait()
}

// respawn replaces the incarnation of a slot, carrying its pending messages over
func (g *ChildrenGroup) respawn(member *Child) {
	from := Stopped
	var carry []*Message
	if previous := member.current.Load(); previous != nil {
		from = previous.getState()
		carry = previous.leftovers()
	}
	g.spawnSlot(member, carry, from, EventTransition)
}

func (g *ChildrenGroup) spawnSlot(member *Child, carry []*Message, from State, kind EventKind) {
	inc := newIncarnation(member)
	inc.emit(Event{Kind: kind, From: from, To: Starting})
	if kind == EventTransition {
		inc.emit(Event{Kind: EventRestart, From: from, To: Starting})
	}

	// the backlog is unbounded so that no accepted message is lost to the
	// capacity of the new mailbox
	if g.initial != nil {
		inc.backlog.Push(g.initial.Clone())
	}
	for _, msg := range carry {
		inc.backlog.Push(msg)
	}

	member.publish(inc)
	inc.start()
}

// newMailbox creates the mailbox of a new incarnation
func (g *ChildrenGroup) newMailbox(inc *incarnation) Mailbox {
	if g.mailbox != nil {
		return g.mailbox()
	}

	return g.owner.system.config.mailboxProducer(func(length int64) {
		inc.emit(Event{Kind: EventHighWatermark, Count: length})
	})()
}
