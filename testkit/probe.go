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

package testkit

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/tochemey/warden/actor"
)

const (
	// MessagesQueueMax is the number of messages a probe keeps before its child suspends
	MessagesQueueMax int = 1000
	// DefaultTimeout is the time an expectation waits for a message
	DefaultTimeout time.Duration = 3 * time.Second
)

// Probe is a child recording the messages it receives so that a test can
// assert on them
type Probe interface {
	// ExpectMessage asserts that the next message received is the expected one
	ExpectMessage(payload any)
	// ExpectMessageWithin asserts that the next message received within duration is the expected one
	ExpectMessageWithin(duration time.Duration, payload any)
	// ExpectNoMessage asserts that no message is received within a short delay
	ExpectNoMessage()
	// ExpectAnyMessage asserts that a message is received and returns it
	ExpectAnyMessage() any
	// ExpectAnyMessageWithin asserts that a message is received within duration and returns it
	ExpectAnyMessageWithin(duration time.Duration) any
	// ExpectMessageOfType asserts that the next message has the same type as sample
	ExpectMessageOfType(sample any) any
	// Send sends payload to target with the probe as sender, so replies land in the probe
	Send(target *actor.Child, payload any)
	// Sender returns the sender of the last message received, if any
	Sender() (actor.ID, bool)
	// Child returns the child backing the probe
	Child() *actor.Child
	// Stop stops the probe
	Stop()
}

type message struct {
	sender    actor.ID
	hasSender bool
	payload   any
}

type probeActor struct {
	queue chan<- message
}

var _ actor.Actor = (*probeActor)(nil)

func (x *probeActor) PreStart(context.Context) error {
	return nil
}

func (x *probeActor) Receive(ctx *actor.ReceiveContext) {
	sender, ok := ctx.Sender()
	select {
	case x.queue <- message{sender: sender, hasSender: ok, payload: ctx.Payload()}:
	case <-ctx.Context().Done():
	}
}

func (x *probeActor) PostStop(context.Context) error {
	return nil
}

type probe struct {
	t          *testing.T
	ctx        context.Context
	child      *actor.Child
	queue      chan message
	lastSender actor.ID
	hasSender  bool
	noMessage  time.Duration
}

var _ Probe = (*probe)(nil)

func newProbe(ctx context.Context, t *testing.T, system *actor.System) (*probe, error) {
	queue := make(chan message, MessagesQueueMax)
	child, err := system.Spawn(ctx, func() (actor.Actor, error) {
		return &probeActor{queue: queue}, nil
	}, actor.WithGroupName("probe"))
	if err != nil {
		return nil, err
	}

	return &probe{
		t:         t,
		ctx:       ctx,
		child:     child,
		queue:     queue,
		noMessage: 100 * time.Millisecond,
	}, nil
}

func (x *probe) ExpectMessage(payload any) {
	x.t.Helper()
	x.expectMessage(DefaultTimeout, payload)
}

func (x *probe) ExpectMessageWithin(duration time.Duration, payload any) {
	x.t.Helper()
	x.expectMessage(duration, payload)
}

func (x *probe) ExpectNoMessage() {
	x.t.Helper()
	received, ok := x.receiveOne(x.noMessage)
	require.False(x.t, ok, fmt.Sprintf("received unexpected message %v", received))
}

func (x *probe) ExpectAnyMessage() any {
	x.t.Helper()
	return x.expectAnyMessage(DefaultTimeout)
}

func (x *probe) ExpectAnyMessageWithin(duration time.Duration) any {
	x.t.Helper()
	return x.expectAnyMessage(duration)
}

func (x *probe) ExpectMessageOfType(sample any) any {
	x.t.Helper()
	received := x.expectAnyMessage(DefaultTimeout)
	expected := reflect.TypeOf(sample)
	require.Equal(x.t, expected, reflect.TypeOf(received), fmt.Sprintf("expected %v, found %T", expected, received))
	return received
}

func (x *probe) Send(target *actor.Child, payload any) {
	x.t.Helper()
	msg := actor.NewMessage(payload, actor.WithSender(x.child.ID()))
	require.NoError(x.t, target.Send(x.ctx, msg))
}

func (x *probe) Sender() (actor.ID, bool) {
	return x.lastSender, x.hasSender
}

func (x *probe) Child() *actor.Child {
	return x.child
}

func (x *probe) Stop() {
	x.t.Helper()
	require.NoError(x.t, x.child.Stop(x.ctx))
}

func (x *probe) receiveOne(max time.Duration) (any, bool) {
	timer := time.NewTimer(max)
	defer timer.Stop()

	select {
	case m := <-x.queue:
		x.lastSender = m.sender
		x.hasSender = m.hasSender
		return m.payload, true
	case <-timer.C:
		return nil, false
	}
}

func (x *probe) expectMessage(max time.Duration, payload any) {
	x.t.Helper()
	received, ok := x.receiveOne(max)
	require.True(x.t, ok, fmt.Sprintf("timeout (%v) while waiting for %v", max, payload))

	expected, isProto := payload.(proto.Message)
	if isProto {
		actual, ok := received.(proto.Message)
		require.True(x.t, ok, fmt.Sprintf("expected %v, found %T", payload, received))
		require.True(x.t, proto.Equal(expected, actual), fmt.Sprintf("expected %v, found %v", payload, received))
		return
	}
	require.Equal(x.t, payload, received)
}

func (x *probe) expectAnyMessage(max time.Duration) any {
	x.t.Helper()
	received, ok := x.receiveOne(max)
	require.True(x.t, ok, fmt.Sprintf("timeout (%v) while waiting for a message", max))
	return received
}
