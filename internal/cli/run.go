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
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/tochemey/warden/actor"
	"github.com/tochemey/warden/config"
	"github.com/tochemey/warden/internal/oslib"
)

// RunOptions holds the flags of the run command
type RunOptions struct {
	*RootOptions
	StopTimeout time.Duration
	Tick        time.Duration
	Watch       bool
}

// NewRunCommand creates the run command
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the system declared in the configuration file",
		Long: `Start the system declared in the configuration file and block until it stops.

The system is stopped gracefully on SIGINT or SIGTERM. The command fails when
the root supervisor gives up because its restart intensity was exceeded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.StopTimeout, "stop-timeout", 5*time.Second, "time allotted to every child to stop on shutdown")
	cmd.Flags().DurationVar(&opts.Tick, "tick", defaultTick, "interval of the ticker kind")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "reload the log level when the configuration file changes")
	return cmd
}

func run(ctx context.Context, opts *RunOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	file, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	logger := file.Logger(cmd.OutOrStdout())
	defer func() { _ = logger.Flush() }()

	options := append(file.Options(), actor.WithLogger(logger))
	sys, err := actor.Init(ctx, actor.NewConfig(options...))
	if err != nil {
		return err
	}

	if err := file.Build(ctx, sys, NewKinds(opts.Tick)); err != nil {
		_ = sys.StopAll(context.Background(), opts.StopTimeout)
		return err
	}

	if opts.Watch {
		watcher, err := config.Watch(ctx, opts.ConfigFile, func(changed *config.File) {
			logger.SetLevel(changed.Level())
			logger.Infof("log level set to %s", changed.Level())
		}, config.WithWatchLogger(logger))
		if err != nil {
			_ = sys.StopAll(context.Background(), opts.StopTimeout)
			return err
		}
		defer func() { _ = watcher.Close() }()
	}

	stop := func() error {
		return sys.StopAll(context.Background(), opts.StopTimeout)
	}

	signals, cancel := context.WithCancel(ctx)
	defer cancel()
	oslib.RegisterShutdownHook(stop)
	oslib.HandleInterrupts(signals, logger)

	logger.Infof("system %s started with %d children", sys.Name(), sys.NumChildren())
	select {
	case <-sys.Stopped():
	case <-ctx.Done():
		if err := stop(); err != nil {
			logger.Warnf("system %s stopped with errors: %v", sys.Name(), err)
		}
	}
	return sys.BlockUntilStopped()
}
