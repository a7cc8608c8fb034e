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

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tochemey/warden/config"
)

// NewValidateCommand creates the validate command
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file without starting the system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	file, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	kinds := NewKinds(defaultTick)
	groups, supervisors, err := walk(file.Root, kinds)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d groups, %d supervisors\n", opts.ConfigFile, groups, supervisors)
	return err
}

// walk counts the declared nodes and checks every kind is known
func walk(declared config.Supervisor, kinds *config.Kinds) (groups, supervisors int, err error) {
	for _, node := range declared.Children {
		switch {
		case node.Group != nil:
			if _, err := kinds.Get(node.Group.Kind); err != nil {
				return 0, 0, err
			}
			groups++
		case node.Supervisor != nil:
			g, s, err := walk(*node.Supervisor, kinds)
			if err != nil {
				return 0, 0, err
			}
			groups += g
			supervisors += s + 1
		}
	}
	return groups, supervisors, nil
}
