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

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/tochemey/warden/actor"
	"github.com/tochemey/warden/config"
)

const (
	defaultTick = time.Second

	// commands understood by the built-in kinds
	startCommand = "start"
	failCommand  = "fail"
	panicCommand = "panic"
)

// NewKinds returns the kinds available to configuration files run by the command line:
//   - echo logs every message it receives and replies to the sender, if any.
//     It faults on "fail" and panics on "panic".
//   - ticker logs a tick every interval once it received "start".
func NewKinds(interval time.Duration) *config.Kinds {
	return config.NewKinds().
		Register("echo", func() (actor.Actor, error) {
			return new(echo), nil
		}).
		Register("ticker", func() (actor.Actor, error) {
			return &ticker{interval: interval}, nil
		})
}

type echo struct {
	received int
}

var _ actor.Actor = (*echo)(nil)

func (x *echo) PreStart(context.Context) error {
	return nil
}

func (x *echo) Receive(ctx *actor.ReceiveContext) {
	switch ctx.Payload() {
	case failCommand:
		ctx.Err(fmt.Errorf("%s: failure requested", ctx.ID()))
		return
	case panicCommand:
		panic(fmt.Sprintf("%s: panic requested", ctx.ID()))
	}

	x.received++
	ctx.Logger().Infof("%s received %v (%d so far)", ctx.ID(), ctx.Payload(), x.received)
	if _, ok := ctx.Sender(); ok {
		if err := ctx.Reply(ctx.Payload()); err != nil {
			ctx.Logger().Warnf("%s failed to reply: %v", ctx.ID(), err)
		}
	}
}

func (x *echo) PostStop(context.Context) error {
	return nil
}

type tick struct{}

type ticker struct {
	interval  time.Duration
	system    *actor.System
	reference string
	ticks     int
}

var _ actor.Actor = (*ticker)(nil)

func (x *ticker) PreStart(context.Context) error {
	return nil
}

func (x *ticker) Receive(ctx *actor.ReceiveContext) {
	x.system = ctx.System()
	switch ctx.Payload().(type) {
	case tick:
		x.ticks++
		ctx.Logger().Infof("%s tick %d", ctx.ID(), x.ticks)
		x.next(ctx)
	case string:
		if ctx.Payload() == startCommand && x.reference == "" {
			x.next(ctx)
		}
	}
}

// PostStop cancels the pending tick so that the next incarnation starts a single chain
func (x *ticker) PostStop(context.Context) error {
	if x.system == nil || x.reference == "" {
		return nil
	}
	// the tick may already be in flight
	_ = x.system.CancelSchedule(x.reference)
	return nil
}

func (x *ticker) next(ctx *actor.ReceiveContext) {
	reference, err := ctx.ScheduleOnce(tick{}, x.interval)
	if err != nil {
		ctx.Logger().Debugf("%s failed to schedule the next tick: %v", ctx.ID(), err)
		x.reference = ""
		return
	}
	x.reference = reference
}
