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

package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMailboxClosed is returned when a message is sent to a child that has reached the Stopped state.
	ErrMailboxClosed = errors.New("mailbox is closed")

	// ErrRestartIntensityExceeded is returned when a supervisor observed more restarts than
	// its intensity allows within the configured window.
	ErrRestartIntensityExceeded = errors.New("restart intensity exceeded")

	// ErrRestartTriesExhausted is returned when a member of a children group failed more
	// consecutive times than its restart policy allows.
	ErrRestartTriesExhausted = errors.New("restart tries exhausted")

	// ErrShutdownTimeout is returned when a child did not stop within the allotted time.
	ErrShutdownTimeout = errors.New("shutdown timed out")

	// ErrSystemNotStarted indicates that the system has not been initialized before use.
	ErrSystemNotStarted = errors.New("system is not running")

	// ErrSupervisorStopped is returned when an operation targets a supervisor that is no longer running.
	ErrSupervisorStopped = errors.New("supervisor is not running")

	// ErrChildNotFound indicates that the targeted child could not be found in the tree.
	ErrChildNotFound = errors.New("child not found")

	// ErrInvalidSlot is returned when a slot index is out of range for a children group.
	ErrInvalidSlot = errors.New("invalid slot")

	// ErrTypeMismatch is returned when a message payload is not of the requested type.
	ErrTypeMismatch = errors.New("payload type mismatch")

	// ErrInvalidTimeout is returned when a timeout value is less than or equal to zero.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidConfig is returned when the runtime configuration is not valid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUndefinedFactory is returned when a children group is declared without a factory.
	ErrUndefinedFactory = errors.New("factory is not defined")

	// ErrFactoryNotRegistered is returned when a configuration file references an unknown kind.
	ErrFactoryNotRegistered = errors.New("factory is not registered")

	// ErrSchedulerNotStarted is returned when attempting to use the message scheduler before it has started.
	ErrSchedulerNotStarted = errors.New("scheduler has not started")

	// ErrScheduledReferenceNotFound is returned when cancelling an unknown scheduled delivery.
	ErrScheduledReferenceNotFound = errors.New("scheduled reference not found")

	// ErrExecutorStopped is returned when work is submitted to a worker pool that has been shut down.
	ErrExecutorStopped = errors.New("worker pool is stopped")

	// ErrExecutorNotStarted is returned when work is submitted to a worker pool that has not been started.
	ErrExecutorNotStarted = errors.New("worker pool is not started")
)

// FactoryError is the fault raised when a child behavior could not be produced
// by its factory or failed to initialize
type FactoryError struct {
	err error
}

// enforce compilation error
var _ error = (*FactoryError)(nil)

// NewFactoryError creates an instance of FactoryError
func NewFactoryError(err error) *FactoryError {
	return &FactoryError{
		err: fmt.Errorf("factory error: %w", err),
	}
}

// Error implements the standard error interface
func (e *FactoryError) Error() string {
	return e.err.Error()
}

func (e *FactoryError) Unwrap() error {
	return e.err
}

// RuntimeFault wraps a panic or an error raised while a child was processing a message.
// When the fault comes from a panic the captured backtrace is available through Stack.
type RuntimeFault struct {
	value any
	stack []byte
}

// enforce compilation error
var _ error = (*RuntimeFault)(nil)

// NewRuntimeFault creates an instance of RuntimeFault from a recovered value and its backtrace
func NewRuntimeFault(value any, stack []byte) *RuntimeFault {
	return &RuntimeFault{value: value, stack: stack}
}

// Error implements the standard error interface
func (e *RuntimeFault) Error() string {
	return fmt.Sprintf("runtime fault: %v", e.value)
}

// Unwrap returns the underlying error when the recovered value is an error
func (e *RuntimeFault) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}

// Value returns the recovered value
func (e *RuntimeFault) Value() any {
	return e.value
}

// Stack returns the captured backtrace. It is empty for faults reported as plain errors.
func (e *RuntimeFault) Stack() []byte {
	return e.stack
}

// IntensityError is returned when a supervisor exceeded its restart intensity
type IntensityError struct {
	supervisor  string
	maxRestarts int
	window      time.Duration
}

// enforce compilation error
var _ error = (*IntensityError)(nil)

// NewIntensityError creates an instance of IntensityError
func NewIntensityError(supervisor string, maxRestarts int, window time.Duration) *IntensityError {
	return &IntensityError{
		supervisor:  supervisor,
		maxRestarts: maxRestarts,
		window:      window,
	}
}

// Error implements the standard error interface
func (e *IntensityError) Error() string {
	return fmt.Sprintf("supervisor %s: more than %d restarts within %s: %v", e.supervisor, e.maxRestarts, e.window, ErrRestartIntensityExceeded)
}

func (e *IntensityError) Unwrap() error {
	return ErrRestartIntensityExceeded
}

// Supervisor returns the identifier of the supervisor that gave up
func (e *IntensityError) Supervisor() string {
	return e.supervisor
}

// ShutdownTimeoutError is returned when a child did not stop in time and had to be reclaimed
type ShutdownTimeoutError struct {
	child   string
	timeout time.Duration
}

// enforce compilation error
var _ error = (*ShutdownTimeoutError)(nil)

// NewShutdownTimeoutError creates an instance of ShutdownTimeoutError
func NewShutdownTimeoutError(child string, timeout time.Duration) *ShutdownTimeoutError {
	return &ShutdownTimeoutError{child: child, timeout: timeout}
}

// Error implements the standard error interface
func (e *ShutdownTimeoutError) Error() string {
	return fmt.Sprintf("child %s did not stop within %s: %v", e.child, e.timeout, ErrShutdownTimeout)
}

func (e *ShutdownTimeoutError) Unwrap() error {
	return ErrShutdownTimeout
}

// Child returns the identifier of the child that timed out
func (e *ShutdownTimeoutError) Child() string {
	return e.child
}

// NewErrRestartTriesExhausted wraps the last member fault with ErrRestartTriesExhausted
func NewErrRestartTriesExhausted(tries int, err error) error {
	return fmt.Errorf("%w after %d tries: %w", ErrRestartTriesExhausted, tries, err)
}

// NewErrChildNotFound formats an ErrChildNotFound for the given identifier
func NewErrChildNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrChildNotFound, id)
}

// NewErrInvalidConfig wraps a validation failure with ErrInvalidConfig
func NewErrInvalidConfig(err error) error {
	return errors.Join(ErrInvalidConfig, err)
}

// IsFault reports whether the error is one a supervisor reacts to
func IsFault(err error) bool {
	var factoryErr *FactoryError
	var runtimeFault *RuntimeFault
	return errors.As(err, &factoryErr) || errors.As(err, &runtimeFault) ||
		errors.Is(err, ErrRestartIntensityExceeded) || errors.Is(err, ErrRestartTriesExhausted)
}
