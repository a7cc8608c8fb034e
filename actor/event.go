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
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/warden/internal/eventstream"
	imetric "github.com/tochemey/warden/internal/metric"
	"github.com/tochemey/warden/log"
)

// EventKind classifies a lifecycle event
type EventKind int

const (
	// EventSpawned is emitted when a child slot gets its first incarnation
	EventSpawned EventKind = iota
	// EventTransition is emitted on every state change of a child
	EventTransition
	// EventFault is emitted when a child raised a fault
	EventFault
	// EventRestart is emitted when a supervisor restarts a child
	EventRestart
	// EventEscalation is emitted when a supervisor gives up and escalates
	EventEscalation
	// EventShutdownTimeout is emitted when a child had to be reclaimed
	EventShutdownTimeout
	// EventDropped is emitted when messages are discarded
	EventDropped
	// EventHighWatermark is emitted when an unbounded mailbox crosses its high watermark
	EventHighWatermark
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventSpawned:
		return "Spawned"
	case EventTransition:
		return "Transition"
	case EventFault:
		return "Fault"
	case EventRestart:
		return "Restart"
	case EventEscalation:
		return "Escalation"
	case EventShutdownTimeout:
		return "ShutdownTimeout"
	case EventDropped:
		return "Dropped"
	case EventHighWatermark:
		return "HighWatermark"
	default:
		return ""
	}
}

// Event describes something that happened in the supervision tree
type Event struct {
	Kind       EventKind
	Time       time.Time
	Supervisor string
	Child      ID
	Group      string
	Slot       int
	From       State
	To         State
	Err        error
	Count      int64
}

// String returns a compact textual form of the event
func (e Event) String() string {
	switch e.Kind {
	case EventTransition, EventSpawned:
		return fmt.Sprintf("%s %s[%d] %s %s->%s", e.Kind, e.Group, e.Slot, e.Child, e.From, e.To)
	case EventDropped, EventHighWatermark:
		return fmt.Sprintf("%s %s[%d] %s count=%d", e.Kind, e.Group, e.Slot, e.Child, e.Count)
	case EventEscalation:
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Supervisor, e.Err)
	default:
		return fmt.Sprintf("%s %s[%d] %s: %v", e.Kind, e.Group, e.Slot, e.Child, e.Err)
	}
}

// EventSink receives the lifecycle events. Emit is called synchronously by the
// runtime and must not block.
type EventSink interface {
	Emit(event Event)
}

// EventSinkFunc adapts a function to EventSink
type EventSinkFunc func(event Event)

// Emit calls f(event)
func (f EventSinkFunc) Emit(event Event) {
	f(event)
}

type multiSink []EventSink

func (sinks multiSink) Emit(event Event) {
	for _, sink := range sinks {
		sink.Emit(event)
	}
}

// logSink writes the events to the system logger
type logSink struct {
	logger log.Logger
}

func (s logSink) Emit(event Event) {
	switch event.Kind {
	case EventFault, EventShutdownTimeout, EventDropped, EventHighWatermark:
		s.logger.Warn(event.String())
	case EventEscalation:
		s.logger.Error(event.String())
	case EventRestart, EventSpawned:
		if s.logger.Enabled(log.InfoLevel) {
			s.logger.Info(event.String())
		}
	default:
		if s.logger.Enabled(log.DebugLevel) {
			s.logger.Debug(event.String())
		}
	}
}

// streamSink publishes the events to the subscribers of the system
type streamSink struct {
	stream *eventstream.Stream[Event]
}

func (s streamSink) Emit(event Event) {
	s.stream.Publish(event)
}

// metricSink records the events with the OpenTelemetry instruments
type metricSink struct {
	instruments *imetric.RuntimeMetric
	system      string
}

func (s metricSink) Emit(event Event) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("system", s.system),
		attribute.String("group", event.Group),
	)

	switch event.Kind {
	case EventFault:
		s.instruments.Faults().Add(ctx, 1, attrs)
	case EventRestart:
		s.instruments.Restarts().Add(ctx, 1, attrs)
	case EventShutdownTimeout:
		s.instruments.ShutdownTimeouts().Add(ctx, 1, attrs)
	case EventEscalation:
		s.instruments.Escalations().Add(ctx, 1, metric.WithAttributes(
			attribute.String("system", s.system),
			attribute.String("supervisor", event.Supervisor),
		))
	case EventDropped:
		s.instruments.DroppedMessages().Add(ctx, event.Count, attrs)
	}
}
