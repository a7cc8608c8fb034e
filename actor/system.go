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

package actor

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	gerrors "github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/internal/chain"
	"github.com/tochemey/warden/internal/eventstream"
	imetric "github.com/tochemey/warden/internal/metric"
	"github.com/tochemey/warden/internal/workerpool"
	"github.com/tochemey/warden/internal/xsync"
	"github.com/tochemey/warden/log"
	"github.com/tochemey/warden/supervisor"
)

// killTimeout is the time children are given to stop when the system is killed
const killTimeout = 100 * time.Millisecond

// System is the root of a supervision tree. It owns the worker pool that runs
// the children, the root supervisor and the event stream.
//
// A System is created running by Init and can be stopped once.
type System struct {
	name   string
	config *Config
	logger log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	pool           *workerpool.WorkerPool
	root           *Supervisor
	registry       *xsync.Map[ID, *Child]
	stream         *eventstream.Stream[Event]
	sink           EventSink
	restartLimiter RestartLimiter
	scheduler      *scheduler
	registration   metric.Registration

	live      atomic.Int64
	startedAt time.Time
	running   atomic.Bool

	stopOnce sync.Once
	stopped  chan struct{}
	stopErr  error

	mu        sync.Mutex
	escalated error
}

// Init validates the configuration, starts the worker pool and the root
// supervisor and returns the running System.
func Init(ctx context.Context, config *Config) (*System, error) {
	if config == nil {
		config = NewConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.logger.With("system", config.name)
	sysCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	system := &System{
		name:           config.name,
		config:         config,
		logger:         logger,
		ctx:            sysCtx,
		cancel:         cancel,
		registry:       xsync.NewMap[ID, *Child](),
		stream:         eventstream.New[Event](),
		restartLimiter: config.newRestartLimiter(),
		scheduler:      newScheduler(logger, config.stopTimeout),
		stopped:        make(chan struct{}),
	}

	sinks := multiSink{logSink{logger: logger}, streamSink{stream: system.stream}}
	if config.metricEnabled {
		sink, err := system.registerMetrics()
		if err != nil {
			cancel()
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	system.sink = append(sinks, config.sinks...)

	system.pool = workerpool.New(
		workerpool.WithNumWorkers(config.workers),
		workerpool.WithLogger(logger),
	)
	system.pool.Start()
	system.scheduler.Start(sysCtx)

	system.root = newSupervisor(system, nil, "root", config.strategy, config.intensity)
	system.root.start()

	system.startedAt = time.Now()
	system.running.Store(true)
	logger.Infof("system %s started with %d workers", config.name, system.pool.NumWorkers())
	return system, nil
}

// Name returns the system name
func (x *System) Name() string {
	return x.name
}

// Logger returns the system logger
func (x *System) Logger() log.Logger {
	return x.logger
}

// Root returns the root supervisor
func (x *System) Root() *Supervisor {
	return x.root
}

// Running reports whether the system accepts new children
func (x *System) Running() bool {
	return x.running.Load()
}

// Uptime returns the number of seconds since the system started
func (x *System) Uptime() int64 {
	if !x.running.Load() {
		return 0
	}
	return int64(time.Since(x.startedAt).Seconds())
}

// NumChildren returns the number of children currently running
func (x *System) NumChildren() int64 {
	return x.live.Load()
}

// Supervisor creates a supervisor under the root supervisor
func (x *System) Supervisor(ctx context.Context, strategy supervisor.Strategy, intensity supervisor.Intensity, opts ...SupervisorOption) (*Supervisor, error) {
	return x.root.Supervisor(ctx, strategy, intensity, opts...)
}

// Children spawns a children group under the root supervisor
func (x *System) Children(ctx context.Context, factory Factory, count int, policy supervisor.RestartPolicy, opts ...ChildrenOption) (*ChildrenGroup, error) {
	return x.root.Children(ctx, factory, count, policy, opts...)
}

// Spawn starts a single permanent child under the root supervisor
func (x *System) Spawn(ctx context.Context, factory Factory, opts ...ChildrenOption) (*Child, error) {
	group, err := x.root.Children(ctx, factory, 1, supervisor.Permanent(), opts...)
	if err != nil {
		return nil, err
	}
	return group.members[0], nil
}

// Broadcast sends a copy of payload to every live child of the system
func (x *System) Broadcast(ctx context.Context, payload any) error {
	return x.root.Broadcast(ctx, payload)
}

// Tell sends payload to the running incarnation identified by id
func (x *System) Tell(ctx context.Context, id ID, payload any) error {
	if !x.running.Load() {
		return gerrors.ErrSystemNotStarted
	}
	return x.send(ctx, id, NewMessage(payload))
}

// Child returns the slot whose current incarnation is identified by id
func (x *System) Child(id ID) (*Child, bool) {
	child, ok := x.registry.Get(id)
	if !ok || child.ID() != id {
		return nil, false
	}
	return child, true
}

// Subscribe registers a subscriber to the supervision events of the system.
// When kinds are given only the events of those kinds are received.
func (x *System) Subscribe(kinds ...EventKind) (*Subscription, error) {
	if !x.running.Load() {
		return nil, gerrors.ErrSystemNotStarted
	}

	var filter eventstream.Filter[Event]
	if len(kinds) > 0 {
		filter = func(event Event) bool {
			return slices.Contains(kinds, event.Kind)
		}
	}
	return &Subscription{subscriber: x.stream.Subscribe(filter)}, nil
}

// Unsubscribe removes the subscription
func (x *System) Unsubscribe(subscription *Subscription) error {
	if !x.running.Load() {
		return gerrors.ErrSystemNotStarted
	}
	x.stream.Unsubscribe(subscription.subscriber)
	return nil
}

// StopAll stops every child of the system in reverse declaration order and
// releases the worker pool. Each child is given timeout to stop before it is
// reclaimed. Calling StopAll more than once returns the result of the first call.
func (x *System) StopAll(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		return gerrors.ErrInvalidTimeout
	}

	x.stopOnce.Do(func() {
		x.stopErr = x.shutdown(ctx, haltMode{drain: x.config.drainOnStop, timeout: timeout})
	})
	return x.stopErr
}

// Kill stops the system without processing the pending messages
func (x *System) Kill(ctx context.Context) error {
	x.stopOnce.Do(func() {
		x.stopErr = x.shutdown(ctx, haltMode{timeout: killTimeout})
	})
	return x.stopErr
}

// BlockUntilStopped waits for the system to stop. It returns the fault that
// made the root supervisor give up, if any.
func (x *System) BlockUntilStopped() error {
	<-x.stopped
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.escalated
}

// Stopped returns a channel closed once the system has stopped
func (x *System) Stopped() <-chan struct{} {
	return x.stopped
}

func (x *System) shutdown(ctx context.Context, mode haltMode) error {
	x.running.Store(false)
	x.logger.Infof("stopping system %s...", x.name)

	err := chain.
		New(chain.WithRunAll(), chain.WithContext(ctx)).
		AddContextRunner(func(ctx context.Context) error {
			x.scheduler.Stop(ctx)
			return nil
		}).
		AddRunner(func() error { return x.root.shutdown(mode) }).
		AddContextRunner(func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, mode.timeout)
			defer cancel()
			return x.pool.Stop(ctx)
		}).
		AddRunnerIf(x.registration != nil, func() error { return x.registration.Unregister() }).
		Run()

	x.stream.Close()
	x.cancel()
	close(x.stopped)

	if err != nil {
		x.logger.Errorf("system %s stopped with errors: %v", x.name, err)
		return err
	}
	x.logger.Infof("system %s stopped", x.name)
	return nil
}

// escalate stops the system after the root supervisor gave up
func (x *System) escalate(err error) {
	x.mu.Lock()
	x.escalated = err
	x.mu.Unlock()

	x.logger.Errorf("root supervisor gave up, stopping system %s: %v", x.name, err)
	if stopErr := x.StopAll(context.Background(), x.config.stopTimeout); stopErr != nil && !errors.Is(stopErr, gerrors.ErrShutdownTimeout) {
		x.logger.Error(stopErr)
	}
}

// send delivers msg to the running incarnation identified by id
func (x *System) send(ctx context.Context, id ID, msg *Message) error {
	child, ok := x.Child(id)
	if !ok {
		return gerrors.NewErrChildNotFound(id.String())
	}
	return child.Send(ctx, msg)
}

// trackLive maintains the number of running children
func (x *System) trackLive(from, to State) {
	switch {
	case to == Running:
		x.live.Add(1)
	case from == Running:
		x.live.Add(-1)
	}
}

func (x *System) emit(event Event) {
	event.Time = time.Now()
	x.sink.Emit(event)
}

func (x *System) registerMetrics() (EventSink, error) {
	meter := imetric.NewProvider().Meter()
	instruments, err := imetric.NewRuntimeMetric(meter)
	if err != nil {
		return nil, err
	}

	observeOptions := []metric.ObserveOption{
		metric.WithAttributes(attribute.String("system", x.name)),
	}

	x.registration, err = meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		observer.ObserveInt64(instruments.LiveChildren(), x.live.Load(), observeOptions...)
		observer.ObserveInt64(instruments.Uptime(), x.Uptime(), observeOptions...)
		return nil
	}, instruments.LiveChildren(), instruments.Uptime())
	if err != nil {
		return nil, err
	}
	return metricSink{instruments: instruments, system: x.name}, nil
}

// Subscription receives the supervision events of a System
type Subscription struct {
	subscriber *eventstream.Subscriber[Event]
}

// ID returns the subscription identifier
func (s *Subscription) ID() string {
	return s.subscriber.ID()
}

// Events drains the events received since the last call, in emission order.
// It returns nothing once the subscription or the system is closed.
func (s *Subscription) Events() []Event {
	return s.subscriber.Drain()
}

// Ready is signaled when events are pending
func (s *Subscription) Ready() <-chan struct{} {
	return s.subscriber.Ready()
}
