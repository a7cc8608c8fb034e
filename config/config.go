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

// Package config loads the runtime settings and the static supervision
// topology of a System from a YAML file.
//
// A file looks like:
//
//	name: orders
//	workers: 8
//	stop_timeout: 5s
//	log:
//	  level: info
//	  format: console
//	root:
//	  strategy: one_for_one
//	  intensity:
//	    max_restarts: 3
//	    window: 5s
//	  children:
//	    - group:
//	        name: echo
//	        kind: echo
//	        count: 3
//	        policy: permanent
//	    - supervisor:
//	        name: tickers
//	        strategy: one_for_all
//	        children:
//	          - group:
//	              kind: ticker
//	              count: 2
//	              policy: tries
//	              tries: 5
//	              initial: start
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tochemey/warden/actor"
	gerrors "github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/internal/validation"
	"github.com/tochemey/warden/log"
	"github.com/tochemey/warden/supervisor"
)

// File is the content of a configuration file
type File struct {
	Name            string        `yaml:"name"`
	Workers         int           `yaml:"workers"`
	MailboxCapacity int           `yaml:"mailbox_capacity"`
	HighWatermark   int64         `yaml:"high_watermark"`
	StopTimeout     time.Duration `yaml:"stop_timeout"`
	DrainOnStop     *bool         `yaml:"drain_on_stop"`
	RestartRate     *RestartRate  `yaml:"restart_rate"`
	InitMaxRetries  int           `yaml:"init_max_retries"`
	InitTimeout     time.Duration `yaml:"init_timeout"`
	Metrics         bool          `yaml:"metrics"`
	Log             Log           `yaml:"log"`
	Root            Supervisor    `yaml:"root"`
}

// RestartRate is the ceiling of restarts issued per second
type RestartRate struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Log holds the logging settings. Only the level is reloaded when the file changes.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Intensity is the restart intensity of a supervisor
type Intensity struct {
	MaxRestarts int           `yaml:"max_restarts"`
	Window      time.Duration `yaml:"window"`
}

// Supervisor declares a supervisor and its children in declaration order
type Supervisor struct {
	Name      string     `yaml:"name"`
	Strategy  string     `yaml:"strategy"`
	Intensity *Intensity `yaml:"intensity"`
	Children  []Node     `yaml:"children"`
}

// Node is either a children group or a nested supervisor
type Node struct {
	Group      *Group      `yaml:"group"`
	Supervisor *Supervisor `yaml:"supervisor"`
}

// Group declares a children group spawned from a registered kind
type Group struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Count   int    `yaml:"count"`
	Policy  string `yaml:"policy"`
	Tries   uint32 `yaml:"tries"`
	Mailbox int    `yaml:"mailbox"`
	Initial string `yaml:"initial"`
}

// levels are the accepted values of log.level
var levels = []string{"debug", "info", "warn", "warning", "error", "fatal", "panic"}

// Load reads and validates the configuration file at path
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a configuration. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	file := new(File)
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	// an empty document leaves every setting to its default
	if err := decoder.Decode(file); err != nil && !errors.Is(err, io.EOF) {
		return nil, gerrors.NewErrInvalidConfig(fmt.Errorf("failed to decode config: %w", err))
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file, nil
}

// Validate checks the settings and the topology
func (f *File) Validate() error {
	chain := validation.New(validation.FailFast()).
		AddValidator(validation.NewNonNegativeValidator("workers", f.Workers)).
		AddValidator(validation.NewNonNegativeValidator("mailbox_capacity", f.MailboxCapacity)).
		AddValidator(validation.NewNonNegativeValidator("high_watermark", f.HighWatermark)).
		AddValidator(validation.NewNonNegativeValidator("stop_timeout", f.StopTimeout)).
		AddValidator(validation.NewNonNegativeValidator("init_max_retries", f.InitMaxRetries)).
		AddValidator(validation.NewNonNegativeValidator("init_timeout", f.InitTimeout)).
		AddValidator(validation.NewOneOfValidator("log.level", strings.ToLower(strings.TrimSpace(f.Log.Level)), levels...)).
		AddValidator(validation.NewOneOfValidator("log.format", strings.ToLower(strings.TrimSpace(f.Log.Format)), "json", "console")).
		AddValidator(validation.NewConditionalValidator(f.RestartRate != nil, restartRateValidator{f.RestartRate}))

	if err := chain.Validate(); err != nil {
		return gerrors.NewErrInvalidConfig(err)
	}

	if err := f.Root.validate("root"); err != nil {
		return gerrors.NewErrInvalidConfig(err)
	}
	return nil
}

// Level returns the configured log level, info by default
func (f *File) Level() log.Level {
	if f.Log.Level == "" {
		return log.InfoLevel
	}
	return log.ParseLevel(f.Log.Level)
}

// Logger creates the logger described by the log settings
func (f *File) Logger(writers ...io.Writer) *log.Zap {
	return log.NewZapWithFormat(log.ParseFormat(f.Log.Format), f.Level(), writers...)
}

// Options converts the runtime settings into System options.
// Settings left out of the file keep the System defaults.
func (f *File) Options() []actor.Option {
	var options []actor.Option
	if f.Name != "" {
		options = append(options, actor.WithName(f.Name))
	}
	if f.Workers > 0 {
		options = append(options, actor.WithWorkers(f.Workers))
	}
	if f.MailboxCapacity > 0 {
		options = append(options, actor.WithMailboxCapacity(f.MailboxCapacity))
	}
	if f.HighWatermark > 0 {
		options = append(options, actor.WithHighWatermark(f.HighWatermark))
	}
	if f.StopTimeout > 0 {
		options = append(options, actor.WithStopTimeout(f.StopTimeout))
	}
	if f.DrainOnStop != nil {
		options = append(options, actor.WithDrainOnStop(*f.DrainOnStop))
	}
	if f.RestartRate != nil {
		options = append(options, actor.WithRestartRate(f.RestartRate.PerSecond, f.RestartRate.Burst))
	}
	if f.InitMaxRetries > 0 {
		options = append(options, actor.WithInitMaxRetries(f.InitMaxRetries))
	}
	if f.InitTimeout > 0 {
		options = append(options, actor.WithInitTimeout(f.InitTimeout))
	}
	if f.Metrics {
		options = append(options, actor.WithMetric())
	}

	// the root declaration was validated by Load
	strategy, _ := f.Root.strategy()
	options = append(options, actor.WithRootSupervision(strategy, f.Root.intensity()))
	return options
}

func (s Supervisor) strategy() (supervisor.Strategy, error) {
	if s.Strategy == "" {
		return supervisor.OneForOneStrategy, nil
	}
	return supervisor.ParseStrategy(s.Strategy)
}

func (s Supervisor) intensity() supervisor.Intensity {
	if s.Intensity == nil {
		return supervisor.DefaultIntensity
	}
	return supervisor.NewIntensity(s.Intensity.MaxRestarts, s.Intensity.Window)
}

func (s Supervisor) validate(path string) error {
	if _, err := s.strategy(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := s.intensity().Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for i, node := range s.Children {
		nodePath := fmt.Sprintf("%s.children[%d]", path, i)
		switch {
		case node.Group != nil && node.Supervisor != nil:
			return fmt.Errorf("%s: a node is either a group or a supervisor", nodePath)
		case node.Group != nil:
			if err := node.Group.validate(nodePath); err != nil {
				return err
			}
		case node.Supervisor != nil:
			if err := node.Supervisor.validate(nodePath); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s: empty node", nodePath)
		}
	}
	return nil
}

func (g Group) validate(path string) error {
	return validation.New(validation.FailFast(), validation.WithPath(path)).
		AddValidator(validation.NewEmptyStringValidator("kind", g.Kind)).
		AddValidator(validation.NewPositiveValidator("count", g.Count)).
		AddValidator(validation.NewNonNegativeValidator("mailbox", g.Mailbox)).
		AddValidator(validation.NewOneOfValidator("policy", strings.ToLower(g.Policy), "never", "permanent", "tries")).
		AddValidator(validation.ValidatorFunc(func() error {
			policy, err := g.policy()
			if err != nil {
				return err
			}
			return policy.Validate()
		})).
		Validate()
}

func (g Group) policy() (supervisor.RestartPolicy, error) {
	switch strings.ToLower(g.Policy) {
	case "", "permanent":
		return supervisor.Permanent(), nil
	case "never":
		return supervisor.Never(), nil
	case "tries":
		return supervisor.Tries(g.Tries), nil
	default:
		return supervisor.RestartPolicy{}, fmt.Errorf("unknown restart policy %q", g.Policy)
	}
}

type restartRateValidator struct {
	rate *RestartRate
}

func (v restartRateValidator) Validate() error {
	return validation.New(validation.FailFast(), validation.WithPath("restart_rate")).
		AddValidator(validation.NewNonNegativeValidator("per_second", v.rate.PerSecond)).
		AddValidator(validation.NewConditionalValidator(v.rate.PerSecond > 0,
			validation.NewPositiveValidator("burst", v.rate.Burst))).
		Validate()
}
