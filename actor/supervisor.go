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
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/multierr"

	gerrors "github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/internal/queue"
	"github.com/tochemey/warden/log"
	"github.com/tochemey/warden/supervisor"
)

type supervisorState int32

const (
	supervisorRunning supervisorState = iota
	// supervisorHalted means the children were stopped for a rebuild
	supervisorHalted
	// supervisorFaulted means the supervisor escalated and waits for its parent
	supervisorFaulted
	supervisorStopped
)

// SupervisorOption configures a supervisor
type SupervisorOption func(*supervisorConfig)

type supervisorConfig struct {
	name string
}

// WithSupervisorName sets the name of the supervisor
func WithSupervisorName(name string) SupervisorOption {
	return func(config *supervisorConfig) {
		config.name = name
	}
}

// treeNode is a child node of a supervisor: a children group or a nested supervisor
type treeNode struct {
	group      *ChildrenGroup
	supervisor *Supervisor
}

// Supervisor is a node of the supervision tree. It owns an ordered list of
// children groups and nested supervisors and restarts them according to its
// strategy when they fault.
//
// Every supervisor runs a single control loop. All structural changes happen on
// that loop: adding nodes, handling faults, restarting and stopping. Calls go
// down the tree synchronously and faults go up as asynchronous signals, so two
// loops never wait on each other.
type Supervisor struct {
	name      string
	system    *System
	parent    *Supervisor
	strategy  supervisor.Strategy
	intensity supervisor.Intensity
	logger    log.Logger

	mu    sync.RWMutex
	id    ID
	nodes []*treeNode

	state    atomic.Int32
	sequence atomic.Int64

	// owned by the loop
	limiter *supervisor.Limiter
	handled mapset.Set[ID]
	exit    bool

	signals  *queue.Mpsc[any]
	notify   chan struct{}
	loopDone chan struct{}
}

func newSupervisor(system *System, parent *Supervisor, name string, strategy supervisor.Strategy, intensity supervisor.Intensity) *Supervisor {
	id := newID()
	return &Supervisor{
		name:      name,
		system:    system,
		parent:    parent,
		strategy:  strategy,
		intensity: intensity,
		logger:    system.logger.With("supervisor", name),
		id:        id,
		limiter:   supervisor.NewLimiter(intensity),
		handled:   mapset.NewSet[ID](),
		signals:   queue.NewMpsc[any](),
		notify:    make(chan struct{}, 1),
		loopDone:  make(chan struct{}),
	}
}

// ID returns the ID of the current generation of the supervisor.
// It changes every time the supervisor is rebuilt.
func (s *Supervisor) ID() ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Name returns the supervisor name
func (s *Supervisor) Name() string {
	return s.name
}

// Strategy returns the supervision strategy
func (s *Supervisor) Strategy() supervisor.Strategy {
	return s.strategy
}

// Intensity returns the restart intensity
func (s *Supervisor) Intensity() supervisor.Intensity {
	return s.intensity
}

// Parent returns the parent supervisor. It is nil for the root.
func (s *Supervisor) Parent() *Supervisor {
	return s.parent
}

// IsRunning reports whether the supervisor handles faults
func (s *Supervisor) IsRunning() bool {
	return s.getState() == supervisorRunning
}

// Children spawns a group of count children produced by factory under the supervisor.
// The members start concurrently. A member failing to start is handled like any
// other fault.
func (s *Supervisor) Children(ctx context.Context, factory Factory, count int, policy supervisor.RestartPolicy, opts ...ChildrenOption) (*ChildrenGroup, error) {
	if !s.system.running.Load() {
		return nil, gerrors.ErrSystemNotStarted
	}

	if factory == nil {
		return nil, gerrors.ErrUndefinedFactory
	}

	if count < 1 {
		return nil, gerrors.NewErrInvalidConfig(fmt.Errorf("children count must be positive, got %d", count))
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	config := &childrenConfig{name: fmt.Sprintf("%s/group-%d", s.name, s.sequence.Add(1))}
	for _, opt := range opts {
		opt(config)
	}

	group := newChildrenGroup(s, factory, count, policy, config)
	if err := s.call(ctx, func() {
		s.appendNode(&treeNode{group: group})
		group.spawn()
	}); err != nil {
		return nil, err
	}
	return group, nil
}

// Supervisor creates a nested supervisor
func (s *Supervisor) Supervisor(ctx context.Context, strategy supervisor.Strategy, intensity supervisor.Intensity, opts ...SupervisorOption) (*Supervisor, error) {
	if !s.system.running.Load() {
		return nil, gerrors.ErrSystemNotStarted
	}

	if err := intensity.Validate(); err != nil {
		return nil, err
	}

	config := &supervisorConfig{name: fmt.Sprintf("%s/supervisor-%d", s.name, s.sequence.Add(1))}
	for _, opt := range opts {
		opt(config)
	}

	child := newSupervisor(s.system, s, config.name, strategy, intensity)
	if err := s.call(ctx, func() {
		s.appendNode(&treeNode{supervisor: child})
		child.start()
	}); err != nil {
		return nil, err
	}
	return child, nil
}

// Groups returns the children groups owned by the supervisor
func (s *Supervisor) Groups() []*ChildrenGroup {
	var groups []*ChildrenGroup
	for _, node := range s.snapshot() {
		if node.group != nil {
			groups = append(groups, node.group)
		}
	}
	return groups
}

// Supervisors returns the nested supervisors
func (s *Supervisor) Supervisors() []*Supervisor {
	var supervisors []*Supervisor
	for _, node := range s.snapshot() {
		if node.supervisor != nil {
			supervisors = append(supervisors, node.supervisor)
		}
	}
	return supervisors
}

// Broadcast sends a copy of payload to every live child of the subtree.
// The set of recipients is a snapshot taken while the broadcast walks the tree:
// children spawned meanwhile may not receive it.
func (s *Supervisor) Broadcast(ctx context.Context, payload any) error {
	if !s.system.running.Load() {
		return gerrors.ErrSystemNotStarted
	}
	return s.broadcast(ctx, NewMessage(payload, WithDelivery(Broadcast)))
}

func (s *Supervisor) broadcast(ctx context.Context, msg *Message) error {
	var errs error
	for _, node := range s.snapshot() {
		if node.group != nil {
			errs = multierr.Append(errs, node.group.broadcast(ctx, msg))
			continue
		}
		errs = multierr.Append(errs, node.supervisor.broadcast(ctx, msg))
	}
	return errs
}

// Stop detaches the supervisor from its parent and stops its subtree.
// Stopping the root supervisor stops the system.
func (s *Supervisor) Stop(ctx context.Context) error {
	config := s.system.config
	if s.parent == nil {
		return s.system.StopAll(ctx, config.stopTimeout)
	}

	err := s.parent.call(ctx, func() {
		s.parent.detachSupervisor(s)
	})
	if err != nil && !errors.Is(err, gerrors.ErrSupervisorStopped) {
		return err
	}
	return s.shutdown(haltMode{drain: config.drainOnStop, timeout: config.stopTimeout})
}

func (s *Supervisor) getState() supervisorState {
	return supervisorState(s.state.Load())
}

func (s *Supervisor) start() {
	go s.loop()
}

// loop is the single place where the supervisor mutates its subtree
func (s *Supervisor) loop() {
	defer close(s.loopDone)
	for range s.notify {
		for {
			sig, ok := s.signals.Pop()
			if !ok {
				break
			}

			s.handle(sig)
			if s.exit {
				return
			}
		}
	}
}

func (s *Supervisor) handle(sig any) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("supervisor loop recovered from panic: %v", r)
		}
	}()

	switch sig := sig.(type) {
	case *request:
		defer close(sig.done)
		sig.fn()
	case *faultSignal:
		s.handleFault(sig)
	case *escalationSignal:
		s.handleEscalation(sig)
	default:
		s.logger.Warnf("unhandled supervision signal %T", sig)
	}
}

// signal queues a signal for the loop. It never blocks.
func (s *Supervisor) signal(sig any) {
	s.signals.Push(sig)
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// call runs fn on the loop and waits for it to complete. It returns
// ErrSupervisorStopped when the loop is gone. When ctx is done first, fn may
// still run later.
func (s *Supervisor) call(ctx context.Context, fn func()) error {
	select {
	case <-s.loopDone:
		return gerrors.ErrSupervisorStopped
	default:
	}

	req := &request{fn: fn, done: make(chan struct{})}
	s.signal(req)

	select {
	case <-req.done:
		return nil
	case <-s.loopDone:
		select {
		case <-req.done:
			return nil
		default:
			return gerrors.ErrSupervisorStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shutdown stops the subtree in reverse declaration order and ends the loop
func (s *Supervisor) shutdown(mode haltMode) error {
	var err error
	callErr := s.call(context.Background(), func() {
		err = s.stopNodes(mode)
		s.state.Store(int32(supervisorStopped))
		s.exit = true
	})

	if callErr != nil {
		if errors.Is(callErr, gerrors.ErrSupervisorStopped) {
			return nil
		}
		return callErr
	}

	<-s.loopDone
	return err
}

func (s *Supervisor) stopNodes(mode haltMode) error {
	nodes := s.snapshot()
	var errs error
	for i := len(nodes) - 1; i >= 0; i-- {
		node := nodes[i]
		if node.group != nil {
			errs = multierr.Append(errs, node.group.halt(node.group.members, mode))
			continue
		}
		errs = multierr.Append(errs, node.supervisor.shutdown(mode))
	}
	return errs
}

func (s *Supervisor) snapshot() []*treeNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := make([]*treeNode, len(s.nodes))
	copy(nodes, s.nodes)
	return nodes
}

func (s *Supervisor) appendNode(node *treeNode) {
	s.mu.Lock()
	s.nodes = append(s.nodes, node)
	s.mu.Unlock()
}

func (s *Supervisor) detachGroup(group *ChildrenGroup) {
	group.detached.Store(true)
	s.removeNode(func(node *treeNode) bool { return node.group == group })
}

func (s *Supervisor) detachSupervisor(child *Supervisor) {
	s.removeNode(func(node *treeNode) bool { return node.supervisor == child })
}

func (s *Supervisor) removeNode(match func(*treeNode) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, node := range s.nodes {
		if match(node) {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			return
		}
	}
}

func (s *Supervisor) indexOf(match func(*treeNode) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, node := range s.nodes {
		if match(node) {
			return i
		}
	}
	return -1
}
