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
	"runtime"
	"time"

	"golang.org/x/time/rate"

	"github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/internal/validation"
	"github.com/tochemey/warden/log"
	"github.com/tochemey/warden/supervisor"
)

const (
	// DefaultStopTimeout is the time a child is given to stop before it is reclaimed
	DefaultStopTimeout = 5 * time.Second
	// DefaultHighWatermark is the length at which unbounded mailboxes start warning
	DefaultHighWatermark = 10_000
	// DefaultRestartsPerSecond is the restart rate ceiling of the system
	DefaultRestartsPerSecond = 100
	// DefaultRestartBurst is the number of restarts issued without waiting
	DefaultRestartBurst = 10
	// DefaultInitMaxRetries is the number of PreStart attempts of a child
	DefaultInitMaxRetries = 1
	// DefaultInitTimeout bounds the PreStart attempts of a child
	DefaultInitTimeout = time.Second
)

// Config holds the runtime settings of a System
type Config struct {
	name              string
	workers           int
	mailboxCapacity   int
	highWatermark     int64
	stopTimeout       time.Duration
	drainOnStop       bool
	restartsPerSecond float64
	restartBurst      int
	restartLimiter    RestartLimiter
	logger            log.Logger
	sinks             []EventSink
	initMaxRetries    int
	initTimeout       time.Duration
	metricEnabled     bool
	strategy          supervisor.Strategy
	intensity         supervisor.Intensity
}

// NewConfig creates a Config with the default settings overridden by the given options
func NewConfig(opts ...Option) *Config {
	config := &Config{
		name:              "warden",
		workers:           runtime.NumCPU(),
		highWatermark:     DefaultHighWatermark,
		stopTimeout:       DefaultStopTimeout,
		drainOnStop:       true,
		restartsPerSecond: DefaultRestartsPerSecond,
		restartBurst:      DefaultRestartBurst,
		logger:            log.DefaultLogger,
		initMaxRetries:    DefaultInitMaxRetries,
		initTimeout:       DefaultInitTimeout,
		strategy:          supervisor.OneForOneStrategy,
		intensity:         supervisor.DefaultIntensity,
	}

	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// Validate checks the configuration
func (c *Config) Validate() error {
	err := validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("name", c.name)).
		AddValidator(validation.NewPositiveValidator("workers", c.workers)).
		AddValidator(validation.NewNonNegativeValidator("mailbox capacity", c.mailboxCapacity)).
		AddValidator(validation.NewNonNegativeValidator("high watermark", c.highWatermark)).
		AddValidator(validation.NewPositiveValidator("stop timeout", c.stopTimeout)).
		AddValidator(validation.NewPositiveValidator("init timeout", c.initTimeout)).
		AddValidator(validation.NewPositiveValidator("init max retries", c.initMaxRetries)).
		AddValidator(validation.NewNonNegativeValidator("restart rate", c.restartsPerSecond)).
		AddValidator(validation.NewConditionalValidator(c.restartsPerSecond > 0,
			validation.NewPositiveValidator("restart burst", c.restartBurst))).
		AddAssertion(c.logger != nil, "the logger is required").
		AddValidator(c.intensity).
		Validate()
	if err != nil {
		return errors.NewErrInvalidConfig(err)
	}
	return nil
}

// Name returns the system name
func (c *Config) Name() string {
	return c.name
}

// Workers returns the size of the worker pool
func (c *Config) Workers() int {
	return c.workers
}

// MailboxCapacity returns the default mailbox capacity. Zero means unbounded.
func (c *Config) MailboxCapacity() int {
	return c.mailboxCapacity
}

// HighWatermark returns the warning threshold of unbounded mailboxes
func (c *Config) HighWatermark() int64 {
	return c.highWatermark
}

// StopTimeout returns the time a child is given to stop
func (c *Config) StopTimeout() time.Duration {
	return c.stopTimeout
}

// DrainOnStop reports whether stopping children process their pending messages first
func (c *Config) DrainOnStop() bool {
	return c.drainOnStop
}

// Logger returns the configured logger
func (c *Config) Logger() log.Logger {
	return c.logger
}

// Strategy returns the strategy of the root supervisor
func (c *Config) Strategy() supervisor.Strategy {
	return c.strategy
}

// Intensity returns the restart intensity of the root supervisor
func (c *Config) Intensity() supervisor.Intensity {
	return c.intensity
}

// mailboxProducer returns the producer of the default mailbox
func (c *Config) mailboxProducer(onHigh WatermarkFunc) MailboxProducer {
	if c.mailboxCapacity > 0 {
		capacity := c.mailboxCapacity
		return func() Mailbox { return NewBoundedMailbox(capacity) }
	}

	watermark := c.highWatermark
	return func() Mailbox { return NewUnboundedMailbox(watermark, onHigh) }
}

// newRestartLimiter returns the configured RestartLimiter or the default token bucket
func (c *Config) newRestartLimiter() RestartLimiter {
	if c.restartLimiter != nil {
		return c.restartLimiter
	}
	if c.restartsPerSecond == 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(c.restartsPerSecond), c.restartBurst)
}
