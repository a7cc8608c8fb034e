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

package chain

import (
	"context"

	"go.uber.org/multierr"
)

// Chain runs a sequence of steps in insertion order and collects their errors.
// In fail-fast mode the steps following the first failure are skipped.
type Chain struct {
	failFast bool
	errs     []error
	ctx      context.Context
}

// Option configures a chain at creation time.
type Option func(*Chain)

// New creates a new chain
func New(opts ...Option) *Chain {
	chain := &Chain{
		ctx: context.Background(),
	}

	for _, opt := range opts {
		opt(chain)
	}

	return chain
}

// AddRunner runs fn unless the chain already failed in fail-fast mode
func (c *Chain) AddRunner(fn func() error) *Chain {
	if c.halted() {
		return c
	}
	if err := fn(); err != nil {
		c.errs = append(c.errs, err)
	}
	return c
}

// AddRunners adds a slice of steps to the chain. The slice order does matter here
func (c *Chain) AddRunners(fns ...func() error) *Chain {
	for _, fn := range fns {
		c = c.AddRunner(fn)
	}
	return c
}

// AddContextRunner runs fn with the chain context
func (c *Chain) AddContextRunner(fn func(ctx context.Context) error) *Chain {
	return c.AddRunner(func() error { return fn(c.ctx) })
}

// AddRunnerIf runs fn only when the condition holds
func (c *Chain) AddRunnerIf(condition bool, fn func() error) *Chain {
	if !condition {
		return c
	}
	return c.AddRunner(fn)
}

// Run returns the collected error
func (c *Chain) Run() error {
	if len(c.errs) == 0 {
		return nil
	}
	if c.failFast {
		return c.errs[0]
	}
	return multierr.Combine(c.errs...)
}

func (c *Chain) halted() bool {
	return c.failFast && len(c.errs) > 0
}

// WithFailFast sets whether a chain should stop on first error.
func WithFailFast() Option {
	return func(c *Chain) { c.failFast = true }
}

// WithRunAll sets whether a chain should run every step and return all errors.
func WithRunAll() Option {
	return func(c *Chain) { c.failFast = false }
}

// WithContext sets the chain context to use
func WithContext(ctx context.Context) Option {
	return func(c *Chain) { c.ctx = ctx }
}
