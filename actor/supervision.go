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

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/supervisor"
)

// restartUnit is the node, or the single slot of a group, that faulted
type restartUnit struct {
	node int
	slot *Child
	// revive brings the retired slots of the node back
	revive bool
}

// restartTarget is a node, or a subset of the slots of a group, to restart
type restartTarget struct {
	node   *treeNode
	slots  []*Child
	revive bool
}

// handleFault applies the restart policy of the group to a member fault
func (s *Supervisor) handleFault(sig *faultSignal) {
	if s.getState() != supervisorRunning {
		return
	}

	child, inc := sig.child, sig.inc
	group := child.group
	if group.detached.Load() || child.removed.Load() || inc.terminated.Load() || child.current.Load() != inc {
		return
	}

	if !s.handled.Add(inc.id) {
		return
	}

	index := s.indexOf(func(node *treeNode) bool { return node.group == group })
	if index < 0 {
		return
	}

	failures := child.failures.Add(1)
	switch group.policy.Decide(failures) {
	case supervisor.Stop:
		s.logger.Infof("%s stopped after fault: %v", child, sig.err)
		_ = inc.halt(haltMode{timeout: s.system.config.stopTimeout})
		child.retire(inc)

	case supervisor.Escalate:
		s.logger.Warnf("%s exhausted %s", child, group.policy)
		_ = inc.halt(haltMode{timeout: s.system.config.stopTimeout})
		s.resolve(restartUnit{node: index, revive: true}, sig.timestamp, errors.NewErrRestartTriesExhausted(int(failures), sig.err))

	default:
		s.resolve(restartUnit{node: index, slot: child}, sig.timestamp, sig.err)
	}

	// a terminated incarnation can no longer pass the checks above
	if inc.terminated.Load() {
		s.handled.Remove(inc.id)
	}
}

// handleEscalation restarts a nested supervisor that gave up
func (s *Supervisor) handleEscalation(sig *escalationSignal) {
	if s.getState() != supervisorRunning {
		return
	}

	if sig.from.ID() != sig.generation || !s.handled.Add(sig.generation) {
		return
	}

	index := s.indexOf(func(node *treeNode) bool { return node.supervisor == sig.from })
	if index < 0 {
		return
	}

	s.resolve(restartUnit{node: index, revive: true}, sig.timestamp, sig.err)
	if sig.from.ID() != sig.generation {
		s.handled.Remove(sig.generation)
	}
}

// resolve records the restart against the intensity and restarts the nodes
// selected by the strategy, or escalates when the intensity is exceeded
func (s *Supervisor) resolve(unit restartUnit, at time.Time, cause error) {
	if !s.limiter.Record(at) {
		s.escalate(cause)
		return
	}

	s.logger.Debugf("restarting after fault: %v", cause)
	s.restart(s.scope(unit))
}

// scope returns the targets of a restart in declaration order
func (s *Supervisor) scope(unit restartUnit) []restartTarget {
	nodes := s.snapshot()
	switch s.strategy {
	case supervisor.OneForAllStrategy:
		targets := make([]restartTarget, 0, len(nodes))
		for i, node := range nodes {
			if i == unit.node {
				targets = append(targets, nodeTarget(node, unit.revive))
				continue
			}
			targets = append(targets, nodeTarget(node, false))
		}
		return targets

	case supervisor.RestForOneStrategy:
		targets := make([]restartTarget, 0, len(nodes)-unit.node)
		first := unitTarget(nodes[unit.node], unit)
		if unit.slot != nil {
			first.slots = first.slots[:0]
			for _, member := range unit.slot.group.Members() {
				if member.index >= unit.slot.index {
					first.slots = append(first.slots, member)
				}
			}
		}

		targets = append(targets, first)
		for _, node := range nodes[unit.node+1:] {
			targets = append(targets, nodeTarget(node, false))
		}
		return targets

	default:
		return []restartTarget{unitTarget(nodes[unit.node], unit)}
	}
}

func unitTarget(node *treeNode, unit restartUnit) restartTarget {
	if unit.slot != nil {
		return restartTarget{node: node, slots: []*Child{unit.slot}}
	}
	return nodeTarget(node, unit.revive)
}

func nodeTarget(node *treeNode, revive bool) restartTarget {
	target := restartTarget{node: node, revive: revive}
	if node.group != nil {
		if revive {
			target.slots = node.group.revivable()
		} else {
			target.slots = node.group.Members()
		}
	}
	return target
}

// restart stops every target concurrently and starts them again in declaration order
func (s *Supervisor) restart(targets []restartTarget) {
	mode := haltMode{restart: true, timeout: s.system.config.stopTimeout}

	eg := new(errgroup.Group)
	for _, target := range targets {
		if target.node.group != nil {
			eg.Go(func() error {
				return target.node.group.halt(target.slots, mode)
			})
			continue
		}

		eg.Go(target.node.supervisor.suspendTree)
	}

	if err := eg.Wait(); err != nil {
		s.logger.Warnf("restart did not stop cleanly: %v", err)
	}

	for _, target := range targets {
		if target.node.group != nil {
			s.respawn(target.node.group, target.slots, target.revive)
			continue
		}

		child := target.node.supervisor
		if err := child.call(context.Background(), child.rebuild); err != nil {
			s.logger.Warnf("failed to rebuild %s: %v", child.name, err)
			continue
		}

		s.system.emit(Event{Kind: EventRestart, Supervisor: child.name})
	}
}

// respawn restarts the slots of a group, waiting on the restart rate ceiling
func (s *Supervisor) respawn(group *ChildrenGroup, slots []*Child, revive bool) {
	for _, member := range slots {
		switch {
		case member.stopped.Load():
			continue
		case revive:
			member.removed.Store(false)
			member.failures.Store(0)
		case member.removed.Load():
			continue
		}

		if err := s.system.restartLimiter.Wait(s.system.ctx); err != nil {
			s.logger.Debugf("restart rate wait interrupted: %v", err)
		}
		group.respawn(member)
	}
}

// escalate faults the supervisor and reports it to its parent, or stops the
// system when the supervisor is the root
func (s *Supervisor) escalate(cause error) {
	s.state.Store(int32(supervisorFaulted))

	err := errors.NewIntensityError(s.name, s.intensity.MaxRestarts, s.intensity.Window)
	s.logger.Errorf("%v, last fault: %v", err, cause)
	s.system.emit(Event{Kind: EventEscalation, Supervisor: s.name, Err: err})

	if s.parent != nil {
		s.parent.signal(&escalationSignal{
			supervisionSignal: newSupervisionSignal(err),
			from:              s,
			generation:        s.ID(),
		})
		return
	}

	go s.system.escalate(multierr.Combine(err, cause))
}

// suspendTree stops the whole subtree ahead of a rebuild. It is called by the parent.
func (s *Supervisor) suspendTree() error {
	var err error
	if callErr := s.call(context.Background(), func() { err = s.suspend() }); callErr != nil {
		return callErr
	}
	return err
}

func (s *Supervisor) suspend() error {
	s.state.Store(int32(supervisorHalted))
	mode := haltMode{restart: true, timeout: s.system.config.stopTimeout}

	var errs error
	for _, node := range s.snapshot() {
		if node.group != nil {
			errs = multierr.Append(errs, node.group.halt(node.group.members, mode))
			continue
		}
		errs = multierr.Append(errs, node.supervisor.suspendTree())
	}
	return errs
}

// rebuild starts the subtree again from its declaration with a new generation
func (s *Supervisor) rebuild() {
	s.mu.Lock()
	s.id = newID()
	s.mu.Unlock()

	s.limiter.Reset()
	s.handled.Clear()
	s.state.Store(int32(supervisorRunning))

	for _, node := range s.snapshot() {
		if node.group != nil {
			s.respawn(node.group, node.group.members, true)
			continue
		}

		child := node.supervisor
		if err := child.call(context.Background(), child.rebuild); err != nil {
			s.logger.Warnf("failed to rebuild %s: %v", child.name, err)
		}
	}
}
