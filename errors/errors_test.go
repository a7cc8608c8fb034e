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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	t.Run("FactoryError", func(t *testing.T) {
		err := errors.New("database unreachable")
		factoryErr := NewFactoryError(err)
		require.EqualError(t, factoryErr, "factory error: database unreachable")
		assert.ErrorIs(t, factoryErr, err)
		assert.True(t, IsFault(factoryErr))
	})
	t.Run("RuntimeFault from a panic value", func(t *testing.T) {
		fault := NewRuntimeFault("index out of range", []byte("goroutine 1 [running]"))
		require.EqualError(t, fault, "runtime fault: index out of range")
		assert.Nil(t, fault.Unwrap())
		assert.Equal(t, "index out of range", fault.Value())
		assert.NotEmpty(t, fault.Stack())
		assert.True(t, IsFault(fault))
	})
	t.Run("RuntimeFault from an error", func(t *testing.T) {
		err := errors.New("boom")
		fault := NewRuntimeFault(err, nil)
		assert.ErrorIs(t, fault, err)
		assert.Empty(t, fault.Stack())
	})
	t.Run("IntensityError", func(t *testing.T) {
		err := NewIntensityError("root", 2, 10*time.Second)
		assert.ErrorIs(t, err, ErrRestartIntensityExceeded)
		assert.Equal(t, "root", err.Supervisor())
		assert.Contains(t, err.Error(), "more than 2 restarts within 10s")
		assert.True(t, IsFault(err))
	})
	t.Run("ShutdownTimeoutError", func(t *testing.T) {
		err := NewShutdownTimeoutError("child-1", time.Second)
		assert.ErrorIs(t, err, ErrShutdownTimeout)
		assert.Equal(t, "child-1", err.Child())
		assert.False(t, IsFault(err))
	})
	t.Run("RestartTriesExhausted", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewErrRestartTriesExhausted(3, cause)
		assert.ErrorIs(t, err, ErrRestartTriesExhausted)
		assert.ErrorIs(t, err, cause)
		assert.True(t, IsFault(err))
	})
	t.Run("helpers", func(t *testing.T) {
		assert.ErrorIs(t, NewErrChildNotFound("abc"), ErrChildNotFound)
		assert.ErrorIs(t, NewErrInvalidConfig(errors.New("workers")), ErrInvalidConfig)
		assert.False(t, IsFault(ErrMailboxClosed))
	})
}
