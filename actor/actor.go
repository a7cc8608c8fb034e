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

// Actor defines the behavior of a child.
//
// A behavior instance is owned by exactly one incarnation of a child: every
// restart asks the Factory for a fresh instance, so state kept in the struct
// never survives a fault. The lifecycle of an actor follows three phases:
//  1. PreStart – setup logic before message handling begins
//  2. Receive – message handling, one message per invocation
//  3. PostStop – cleanup logic after the last message
type Actor interface {
	// PreStart is invoked once before the actor begins processing any messages.
	// If an error is returned, the child faults with a FactoryError and its
	// supervisor decides whether to restart it.
	PreStart(ctx context.Context) error

	// Receive handles the messages delivered to the child's mailbox.
	// It is never invoked concurrently for a given child. A panic raised here
	// is recovered by the runtime and reported to the supervisor as a RuntimeFault.
	Receive(ctx *ReceiveContext)

	// PostStop is invoked when the child stops, including before a restart.
	PostStop(ctx context.Context) error
}

// Factory produces a fresh behavior instance. It is invoked on the initial
// spawn and on every restart of a child, and should not share mutable state
// between the instances it returns.
type Factory func() (Actor, error)

// ReceiveFunc handles a single message for a FuncActor
type ReceiveFunc = func(ctx *ReceiveContext)

// PreStartFunc defines the PreStart hook of a FuncActor
type PreStartFunc = func(ctx context.Context) error

// PostStopFunc defines the PostStop hook of a FuncActor
type PostStopFunc = func(ctx context.Context) error

// FuncOption configures a FuncActor
type FuncOption interface {
	// Apply sets the Option value of a FuncActor.
	Apply(actor *FuncActor)
}

var _ FuncOption = funcOption(nil)

type funcOption func(actor *FuncActor)

func (f funcOption) Apply(actor *FuncActor) {
	f(actor)
}

// WithPreStart sets the PreStart hook of a FuncActor
func WithPreStart(fn PreStartFunc) FuncOption {
	return funcOption(func(actor *FuncActor) {
		actor.preStart = fn
	})
}

// WithPostStop sets the PostStop hook of a FuncActor
func WithPostStop(fn PostStopFunc) FuncOption {
	return funcOption(func(actor *FuncActor) {
		actor.postStop = fn
	})
}

// FuncActor is an Actor built from plain functions
type FuncActor struct {
	receive  ReceiveFunc
	preStart PreStartFunc
	postStop PostStopFunc
}

var _ Actor = (*FuncActor)(nil)

// NewFuncActor creates a FuncActor
func NewFuncActor(receive ReceiveFunc, opts ...FuncOption) *FuncActor {
	actor := &FuncActor{receive: receive}
	for _, opt := range opts {
		opt.Apply(actor)
	}
	return actor
}

// FuncFactory returns a Factory producing a new FuncActor on every call
func FuncFactory(receive ReceiveFunc, opts ...FuncOption) Factory {
	return func() (Actor, error) {
		return NewFuncActor(receive, opts...), nil
	}
}

// PreStart runs the configured hook, if any
func (x *FuncActor) PreStart(ctx context.Context) error {
	if x.preStart != nil {
		return x.preStart(ctx)
	}
	return nil
}

// Receive hands the message to the receive function
func (x *FuncActor) Receive(ctx *ReceiveContext) {
	x.receive(ctx)
}

// PostStop runs the configured hook, if any
func (x *FuncActor) PostStop(ctx context.Context) error {
	if x.postStop != nil {
		return x.postStop(ctx)
	}
	return nil
}
