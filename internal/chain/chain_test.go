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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func TestChain(t *testing.T) {
	t.Run("With AddRunner FailFast", func(t *testing.T) {
		var calledFn1, calledFn2, calledFn3 bool

		fn1 := func() error { calledFn1 = true; return errors.New("err1") }
		fn2 := func() error { calledFn2 = true; return errors.New("err2") }
		fn3 := func() error { calledFn3 = true; return errors.New("err3") }

		actual := New(WithFailFast()).
			AddRunner(fn1).
			AddRunner(fn2).
			AddRunner(fn3).
			Run()

		require.EqualError(t, actual, "err1")
		require.True(t, calledFn1)
		require.False(t, calledFn2)
		require.False(t, calledFn3)
	})
	t.Run("With AddRunners RunAll", func(t *testing.T) {
		var calledFn3 bool
		fn1 := func() error { return errors.New("err1") }
		fn2 := func() error { return errors.New("err2") }
		fn3 := func() error { calledFn3 = true; return nil }

		actual := New(WithRunAll()).AddRunners(fn1, fn2, fn3).Run()
		require.EqualError(t, actual, "err1; err2")
		require.True(t, calledFn3)
	})
	t.Run("With no error", func(t *testing.T) {
		require.NoError(t, New().AddRunner(func() error { return nil }).Run())
	})
	t.Run("With AddContextRunner", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ctxKey{}, "value")
		var seen any
		err := New(WithContext(ctx)).
			AddContextRunner(func(ctx context.Context) error {
				seen = ctx.Value(ctxKey{})
				return nil
			}).Run()
		require.NoError(t, err)
		require.Equal(t, "value", seen)
	})
	t.Run("With AddRunnerIf", func(t *testing.T) {
		var called bool
		err := New().
			AddRunnerIf(false, func() error { called = true; return errors.New("skipped") }).
			Run()
		require.NoError(t, err)
		require.False(t, called)

		err = New().AddRunnerIf(true, func() error { return errors.New("ran") }).Run()
		require.EqualError(t, err, "ran")
	})
}
