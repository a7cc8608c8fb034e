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
	"context"
	"fmt"

	"github.com/tochemey/warden/actor"
)

// Build creates the declared topology under the root supervisor of sys.
// Every kind referenced by the file is resolved before anything is spawned
// so that a missing factory leaves the tree untouched.
func (f *File) Build(ctx context.Context, sys *actor.System, kinds *Kinds) error {
	if err := f.Root.resolve(kinds); err != nil {
		return err
	}
	return f.Root.build(ctx, sys.Root(), kinds)
}

func (s Supervisor) resolve(kinds *Kinds) error {
	for _, node := range s.Children {
		switch {
		case node.Group != nil:
			if _, err := kinds.Get(node.Group.Kind); err != nil {
				return err
			}
		case node.Supervisor != nil:
			if err := node.Supervisor.resolve(kinds); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s Supervisor) build(ctx context.Context, parent *actor.Supervisor, kinds *Kinds) error {
	for _, node := range s.Children {
		switch {
		case node.Group != nil:
			if err := node.Group.spawn(ctx, parent, kinds); err != nil {
				return err
			}
		case node.Supervisor != nil:
			declared := node.Supervisor
			strategy, err := declared.strategy()
			if err != nil {
				return err
			}

			var opts []actor.SupervisorOption
			if declared.Name != "" {
				opts = append(opts, actor.WithSupervisorName(declared.Name))
			}

			child, err := parent.Supervisor(ctx, strategy, declared.intensity(), opts...)
			if err != nil {
				return fmt.Errorf("failed to create supervisor %q: %w", declared.Name, err)
			}

			if err := declared.build(ctx, child, kinds); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g Group) spawn(ctx context.Context, parent *actor.Supervisor, kinds *Kinds) error {
	factory, err := kinds.Get(g.Kind)
	if err != nil {
		return err
	}

	policy, err := g.policy()
	if err != nil {
		return err
	}

	name := g.Name
	if name == "" {
		name = g.Kind
	}

	opts := []actor.ChildrenOption{actor.WithGroupName(name)}
	if g.Mailbox > 0 {
		opts = append(opts, actor.WithBoundedMailbox(g.Mailbox))
	}
	if g.Initial != "" {
		opts = append(opts, actor.WithInitialMessage(g.Initial))
	}

	if _, err := parent.Children(ctx, factory, g.Count, policy, opts...); err != nil {
		return fmt.Errorf("failed to spawn group %q: %w", name, err)
	}
	return nil
}
