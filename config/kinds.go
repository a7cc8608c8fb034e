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

package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tochemey/warden/actor"
	"github.com/tochemey/warden/errors"
)

// Kinds maps the kind names used in a configuration file to the factories
// producing their behavior
type Kinds struct {
	mu        sync.RWMutex
	factories map[string]actor.Factory
}

// NewKinds creates an empty registry
func NewKinds() *Kinds {
	return &Kinds{factories: make(map[string]actor.Factory)}
}

// Register binds a factory to a kind name. Registering a name twice replaces the factory.
func (k *Kinds) Register(kind string, factory actor.Factory) *Kinds {
	k.mu.Lock()
	k.factories[kind] = factory
	k.mu.Unlock()
	return k
}

// Get returns the factory registered for kind
func (k *Kinds) Get(kind string) (actor.Factory, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	factory, ok := k.factories[kind]
	if !ok || factory == nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrFactoryNotRegistered, kind)
	}
	return factory, nil
}

// Names returns the registered kinds in lexical order
func (k *Kinds) Names() []string {
	k.mu.RLock()
	names := make([]string, 0, len(k.factories))
	for name := range k.factories {
		names = append(names, name)
	}
	k.mu.RUnlock()
	sort.Strings(names)
	return names
}
