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

package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMpsc(t *testing.T) {
	t.Run("With Push/Pop", func(t *testing.T) {
		q := NewMpsc[int]()
		require.True(t, q.IsEmpty())
		for j := 0; j < 100; j++ {
			require.Zero(t, q.Len())
			_, ok := q.Pop()
			require.False(t, ok)

			for i := 0; i < j; i++ {
				q.Push(i)
			}

			for i := 0; i < j; i++ {
				x, ok := q.Pop()
				require.True(t, ok)
				require.Equal(t, i, x)
			}
		}

		a := 0
		r := 0
		for j := 0; j < 100; j++ {
			for i := 0; i < 4; i++ {
				q.Push(a)
				a++
			}

			for i := 0; i < 2; i++ {
				x, ok := q.Pop()
				require.True(t, ok)
				require.Equal(t, r, x)
				r++
			}
		}

		assert.EqualValues(t, 200, q.Len())
		assert.False(t, q.IsEmpty())
	})
	t.Run("With concurrent producers", func(t *testing.T) {
		const producers = 8
		const perProducer = 1000
		q := NewMpsc[int]()

		var wg sync.WaitGroup
		for p := 0; p < producers; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < perProducer; i++ {
					q.Push(p*perProducer + i)
				}
			}(p)
		}
		wg.Wait()

		last := make(map[int]int, producers)
		count := 0
		for {
			x, ok := q.Pop()
			if !ok {
				break
			}
			producer := x / perProducer
			if previous, seen := last[producer]; seen {
				require.Greater(t, x, previous)
			}
			last[producer] = x
			count++
		}
		assert.Equal(t, producers*perProducer, count)
	})
}

func TestDeque(t *testing.T) {
	t.Run("With Push/Pop keeps FIFO order across resizes", func(t *testing.T) {
		q := NewDeque[int]()
		for i := 0; i < 100; i++ {
			q.Push(i)
		}
		require.Equal(t, 100, q.Len())
		for i := 0; i < 100; i++ {
			x, ok := q.Pop()
			require.True(t, ok)
			require.Equal(t, i, x)
		}
		_, ok := q.Pop()
		require.False(t, ok)
		require.True(t, q.IsEmpty())
	})
	t.Run("With wrap around", func(t *testing.T) {
		q := NewDeque[int]()
		next := 0
		expected := 0
		for round := 0; round < 50; round++ {
			for i := 0; i < 3; i++ {
				q.Push(next)
				next++
			}
			for i := 0; i < 2; i++ {
				x, ok := q.Pop()
				require.True(t, ok)
				require.Equal(t, expected, x)
				expected++
			}
		}
		assert.Equal(t, 50, q.Len())
	})
	t.Run("StealHalf takes the back half in order", func(t *testing.T) {
		q := NewDeque[int]()
		for i := 0; i < 5; i++ {
			q.Push(i)
		}
		stolen := q.StealHalf()
		assert.Equal(t, []int{2, 3, 4}, stolen)
		assert.Equal(t, 2, q.Len())

		x, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, 0, x)

		assert.Nil(t, NewDeque[int]().StealHalf())
	})
}
