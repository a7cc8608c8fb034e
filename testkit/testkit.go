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

// Package testkit helps testing behaviors running under a supervision tree.
package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tochemey/warden/actor"
	"github.com/tochemey/warden/log"
	"github.com/tochemey/warden/supervisor"
)

// TestKit runs a System for the duration of a test
type TestKit struct {
	t      *testing.T
	ctx    context.Context
	system *actor.System
}

// New starts a System that is stopped when the test completes.
// The System logs nothing unless a logger is given in opts.
func New(ctx context.Context, t *testing.T, opts ...actor.Option) *TestKit {
	t.Helper()
	options := append([]actor.Option{
		actor.WithLogger(log.DiscardLogger),
		actor.WithStopTimeout(time.Second),
	}, opts...)

	system, err := actor.Init(ctx, actor.NewConfig(options...))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = system.StopAll(context.WithoutCancel(ctx), time.Second)
	})

	return &TestKit{
		t:      t,
		ctx:    ctx,
		system: system,
	}
}

// System returns the System under test
func (k *TestKit) System() *actor.System {
	return k.system
}

// Spawn starts a single permanent child and waits for it to run
func (k *TestKit) Spawn(factory actor.Factory, opts ...actor.ChildrenOption) *actor.Child {
	k.t.Helper()
	child, err := k.system.Spawn(k.ctx, factory, opts...)
	require.NoError(k.t, err)
	k.WaitRunning(child)
	return child
}

// Group starts a children group and waits for its members to run
func (k *TestKit) Group(factory actor.Factory, count int, policy supervisor.RestartPolicy, opts ...actor.ChildrenOption) *actor.ChildrenGroup {
	k.t.Helper()
	group, err := k.system.Children(k.ctx, factory, count, policy, opts...)
	require.NoError(k.t, err)
	k.WaitRunning(group.Members()...)
	return group
}

// WaitRunning waits for the children to reach the Running state
func (k *TestKit) WaitRunning(children ...*actor.Child) {
	k.t.Helper()
	require.Eventually(k.t, func() bool {
		for _, child := range children {
			if !child.IsRunning() {
				return false
			}
		}
		return true
	}, DefaultTimeout, 5*time.Millisecond)
}

// WaitRestarted waits for the child to run a new incarnation
func (k *TestKit) WaitRestarted(child *actor.Child, previous actor.ID) {
	k.t.Helper()
	require.Eventually(k.t, func() bool {
		return child.ID() != previous && child.IsRunning()
	}, DefaultTimeout, 5*time.Millisecond)
}

// NewProbe starts a probe under the root supervisor
func (k *TestKit) NewProbe() Probe {
	k.t.Helper()
	probe, err := newProbe(k.ctx, k.t, k.system)
	require.NoError(k.t, err)
	k.WaitRunning(probe.child)
	return probe
}
