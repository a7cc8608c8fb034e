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

// Package xsync provides a concurrency-safe map split into shards so that
// lookups of unrelated keys do not contend on a single lock.
package xsync

import (
	"hash/maphash"
	"runtime"
	"sync"
	"sync/atomic"
)

const maxShards = 64

// Map is a generic map safe for concurrent use
type Map[K comparable, V any] struct {
	seed   maphash.Seed
	shards []*shard[K, V]
	size   atomic.Int64
}

type shard[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// NewMap creates a Map with one shard per available processor, rounded up to
// a power of two
func NewMap[K comparable, V any]() *Map[K, V] {
	count := 1
	for count < runtime.GOMAXPROCS(0) && count < maxShards {
		count <<= 1
	}

	shards := make([]*shard[K, V], count)
	for i := range shards {
		shards[i] = &shard[K, V]{data: make(map[K]V)}
	}
	return &Map[K, V]{seed: maphash.MakeSeed(), shards: shards}
}

func (m *Map[K, V]) shardOf(k K) *shard[K, V] {
	return m.shards[maphash.Comparable(m.seed, k)&uint64(len(m.shards)-1)]
}

// Set stores v under k, replacing any previous value
func (m *Map[K, V]) Set(k K, v V) {
	s := m.shardOf(k)
	s.mu.Lock()
	if _, ok := s.data[k]; !ok {
		m.size.Add(1)
	}
	s.data[k] = v
	s.mu.Unlock()
}

// Get returns the value stored under k
func (m *Map[K, V]) Get(k K) (V, bool) {
	s := m.shardOf(k)
	s.mu.RLock()
	v, ok := s.data[k]
	s.mu.RUnlock()
	return v, ok
}

// Delete removes k
func (m *Map[K, V]) Delete(k K) {
	m.CompareAndDelete(k, func(V) bool { return true })
}

// CompareAndDelete removes k only when match accepts its current value.
// It reports whether the entry was removed.
func (m *Map[K, V]) CompareAndDelete(k K, match func(V) bool) bool {
	s := m.shardOf(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[k]
	if !ok || !match(v) {
		return false
	}
	delete(s.data, k)
	m.size.Add(-1)
	return true
}

// Len returns the number of entries
func (m *Map[K, V]) Len() int {
	return int(m.size.Load())
}

// Range calls f for every entry, one shard at a time. f must not modify the map.
func (m *Map[K, V]) Range(f func(K, V)) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.data {
			f(k, v)
		}
		s.mu.RUnlock()
	}
}

// Values returns a snapshot of the values
func (m *Map[K, V]) Values() []V {
	values := make([]V, 0, m.Len())
	m.Range(func(_ K, v V) {
		values = append(values, v)
	})
	return values
}

// Reset removes every entry
func (m *Map[K, V]) Reset() {
	for _, s := range m.shards {
		s.mu.Lock()
		m.size.Add(-int64(len(s.data)))
		clear(s.data)
		s.mu.Unlock()
	}
}
