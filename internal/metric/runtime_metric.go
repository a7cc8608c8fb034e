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

package metric

import "go.opentelemetry.io/otel/metric"

// RuntimeMetric groups the OpenTelemetry instruments that describe the health
// of a supervision tree.
//
// Instruments:
//   - warden.child.faults             (Int64Counter)
//   - warden.child.restarts           (Int64Counter)
//   - warden.child.shutdown_timeouts  (Int64Counter)
//   - warden.supervisor.escalations   (Int64Counter)
//   - warden.mailbox.dropped          (Int64Counter)
//   - warden.children.live            (Int64ObservableGauge)
//   - warden.uptime                   (Int64ObservableCounter, unit: seconds)
type RuntimeMetric struct {
	faults           metric.Int64Counter
	restarts         metric.Int64Counter
	shutdownTimeouts metric.Int64Counter
	escalations      metric.Int64Counter
	droppedMessages  metric.Int64Counter
	liveChildren     metric.Int64ObservableGauge
	uptime           metric.Int64ObservableCounter
}

// NewRuntimeMetric creates the runtime instruments using the provided Meter.
// It returns an error if any instrument cannot be created so telemetry
// initialization failures are surfaced early.
func NewRuntimeMetric(meter metric.Meter) (*RuntimeMetric, error) {
	var instruments RuntimeMetric
	var err error

	if instruments.faults, err = meter.Int64Counter(
		"warden.child.faults",
		metric.WithDescription("Total number of faults raised by children"),
	); err != nil {
		return nil, err
	}

	if instruments.restarts, err = meter.Int64Counter(
		"warden.child.restarts",
		metric.WithDescription("Total number of child restarts"),
	); err != nil {
		return nil, err
	}

	if instruments.shutdownTimeouts, err = meter.Int64Counter(
		"warden.child.shutdown_timeouts",
		metric.WithDescription("Total number of children forcibly reclaimed after a stop timeout"),
	); err != nil {
		return nil, err
	}

	if instruments.escalations, err = meter.Int64Counter(
		"warden.supervisor.escalations",
		metric.WithDescription("Total number of faults escalated by supervisors"),
	); err != nil {
		return nil, err
	}

	if instruments.droppedMessages, err = meter.Int64Counter(
		"warden.mailbox.dropped",
		metric.WithDescription("Total number of messages discarded when a child stopped"),
	); err != nil {
		return nil, err
	}

	if instruments.liveChildren, err = meter.Int64ObservableGauge(
		"warden.children.live",
		metric.WithDescription("Number of children currently running"),
	); err != nil {
		return nil, err
	}

	if instruments.uptime, err = meter.Int64ObservableCounter(
		"warden.uptime",
		metric.WithDescription("Uptime of the system in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// Faults returns the counter of child faults
func (x *RuntimeMetric) Faults() metric.Int64Counter {
	return x.faults
}

// Restarts returns the counter of child restarts
func (x *RuntimeMetric) Restarts() metric.Int64Counter {
	return x.restarts
}

// ShutdownTimeouts returns the counter of forced reclamations
func (x *RuntimeMetric) ShutdownTimeouts() metric.Int64Counter {
	return x.shutdownTimeouts
}

// Escalations returns the counter of supervisor escalations
func (x *RuntimeMetric) Escalations() metric.Int64Counter {
	return x.escalations
}

// DroppedMessages returns the counter of discarded messages
func (x *RuntimeMetric) DroppedMessages() metric.Int64Counter {
	return x.droppedMessages
}

// LiveChildren returns the gauge of running children.
// Use with Meter.RegisterCallback to observe the current value periodically.
func (x *RuntimeMetric) LiveChildren() metric.Int64ObservableGauge {
	return x.liveChildren
}

// Uptime returns the observable counter of the system uptime in seconds
func (x *RuntimeMetric) Uptime() metric.Int64ObservableCounter {
	return x.uptime
}
