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
	"time"

	"github.com/tochemey/warden/log"
	"github.com/tochemey/warden/supervisor"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(config *Config)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*Config)

func (f OptionFunc) Apply(c *Config) {
	f(c)
}

// WithName sets the system name
func WithName(name string) Option {
	return OptionFunc(func(c *Config) {
		c.name = name
	})
}

// WithWorkers sets the number of workers of the scheduler
func WithWorkers(workers int) Option {
	return OptionFunc(func(c *Config) {
		c.workers = workers
	})
}

// WithMailboxCapacity makes the default mailbox bounded with the given capacity.
// A capacity of zero selects the unbounded mailbox.
func WithMailboxCapacity(capacity int) Option {
	return OptionFunc(func(c *Config) {
		c.mailboxCapacity = capacity
	})
}

// WithHighWatermark sets the length at which unbounded mailboxes emit a warning event.
// Zero disables the warning.
func WithHighWatermark(length int64) Option {
	return OptionFunc(func(c *Config) {
		c.highWatermark = length
	})
}

// WithStopTimeout sets the time a child is given to stop before it is reclaimed
func WithStopTimeout(timeout time.Duration) Option {
	return OptionFunc(func(c *Config) {
		c.stopTimeout = timeout
	})
}

// WithDrainOnStop sets whether stopping children process their pending messages
// before they stop. When disabled the pending messages are discarded.
func WithDrainOnStop(drain bool) Option {
	return OptionFunc(func(c *Config) {
		c.drainOnStop = drain
	})
}

// WithRestartRate sets the ceiling of restarts issued per second and its burst.
// Restarts above the ceiling are deferred. A rate of zero removes the ceiling.
func WithRestartRate(perSecond float64, burst int) Option {
	return OptionFunc(func(c *Config) {
		c.restartsPerSecond = perSecond
		c.restartBurst = burst
	})
}

// WithRestartLimiter sets a custom RestartLimiter
func WithRestartLimiter(limiter RestartLimiter) Option {
	return OptionFunc(func(c *Config) {
		c.restartLimiter = limiter
	})
}

// WithLogger sets the system custom log
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(c *Config) {
		c.logger = logger
	})
}

// WithEventSink adds a sink receiving every lifecycle event
func WithEventSink(sink EventSink) Option {
	return OptionFunc(func(c *Config) {
		c.sinks = append(c.sinks, sink)
	})
}

// WithInitMaxRetries sets the number of PreStart attempts of a child
func WithInitMaxRetries(retries int) Option {
	return OptionFunc(func(c *Config) {
		c.initMaxRetries = retries
	})
}

// WithInitTimeout sets how long the PreStart attempts of a child may take
func WithInitTimeout(timeout time.Duration) Option {
	return OptionFunc(func(c *Config) {
		c.initTimeout = timeout
	})
}

// WithMetric enables the OpenTelemetry instruments
func WithMetric() Option {
	return OptionFunc(func(c *Config) {
		c.metricEnabled = true
	})
}

// WithRootSupervision sets the strategy and the restart intensity of the root supervisor
func WithRootSupervision(strategy supervisor.Strategy, intensity supervisor.Intensity) Option {
	return OptionFunc(func(c *Config) {
		c.strategy = strategy
		c.intensity = intensity
	})
}
