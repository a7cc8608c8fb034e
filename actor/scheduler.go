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
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	"github.com/tochemey/warden/errors"
	"github.com/tochemey/warden/log"
)

// scheduler delivers messages to children in the future.
// A delivery targets a slot, so it survives the restarts of the child.
type scheduler struct {
	// helps lock concurrent access
	mu sync.Mutex
	// underlying Scheduler
	quartzScheduler quartz.Scheduler
	// states whether the quartzScheduler has started or not
	started *atomic.Bool
	// define the logger
	logger log.Logger
	// define the shutdown timeout
	stopTimeout time.Duration
}

// newScheduler creates an instance of scheduler
func newScheduler(logger log.Logger, stopTimeout time.Duration) *scheduler {
	// create an instance of quartz scheduler with logger off
	quartzScheduler, _ := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))

	return &scheduler{
		started:         atomic.NewBool(false),
		quartzScheduler: quartzScheduler,
		logger:          logger,
		stopTimeout:     stopTimeout,
	}
}

// Start starts the scheduler
func (x *scheduler) Start(ctx context.Context) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.logger.Debug("starting messages scheduler...")
	x.quartzScheduler.Start(ctx)
	x.started.Store(x.quartzScheduler.IsStarted())
	x.logger.Debug("messages scheduler started.")
}

// Stop stops the scheduler
func (x *scheduler) Stop(ctx context.Context) {
	if !x.started.Load() {
		return
	}

	x.logger.Debug("stopping messages scheduler...")
	x.mu.Lock()
	defer x.mu.Unlock()
	_ = x.quartzScheduler.Clear()
	x.quartzScheduler.Stop()
	x.started.Store(x.quartzScheduler.IsStarted())

	ctx, cancel := context.WithTimeout(ctx, x.stopTimeout)
	defer cancel()
	x.quartzScheduler.Wait(ctx)

	x.logger.Debug("messages scheduler stopped.")
}

// ScheduleOnce delivers the message to the child once after delay
func (x *scheduler) ScheduleOnce(msg *Message, target *Child, delay time.Duration) (string, error) {
	return x.schedule(msg, target, func() (quartz.Trigger, error) {
		return quartz.NewRunOnceTrigger(delay), nil
	})
}

// Schedule delivers the message to the child every interval
func (x *scheduler) Schedule(msg *Message, target *Child, interval time.Duration) (string, error) {
	return x.schedule(msg, target, func() (quartz.Trigger, error) {
		return quartz.NewSimpleTrigger(interval), nil
	})
}

// ScheduleWithCron delivers the message to the child following a cron expression
func (x *scheduler) ScheduleWithCron(msg *Message, target *Child, cronExpression string) (string, error) {
	return x.schedule(msg, target, func() (quartz.Trigger, error) {
		return quartz.NewCronTriggerWithLoc(cronExpression, time.Now().Location())
	})
}

// Cancel removes a scheduled delivery
func (x *scheduler) Cancel(reference string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.started.Load() {
		return errors.ErrSchedulerNotStarted
	}

	if err := x.quartzScheduler.DeleteJob(quartz.NewJobKey(reference)); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrScheduledReferenceNotFound, reference)
	}
	return nil
}

func (x *scheduler) schedule(msg *Message, target *Child, trigger func() (quartz.Trigger, error)) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.started.Load() {
		return "", errors.ErrSchedulerNotStarted
	}

	delivery := job.NewFunctionJob[bool](
		func(ctx context.Context) (bool, error) {
			err := target.Send(ctx, msg.Clone())
			return err == nil, err
		},
	)

	when, err := trigger()
	if err != nil {
		x.logger.Error(fmt.Errorf("failed to schedule message: %w", err))
		return "", err
	}

	reference := newJobKey()
	detail := quartz.NewJobDetail(delivery, quartz.NewJobKey(reference))
	if err := x.quartzScheduler.ScheduleJob(detail, when); err != nil {
		return "", err
	}
	return reference, nil
}

// newJobKey creates a new job key
func newJobKey() string {
	return uuid.NewString()
}

// ScheduleOnce delivers payload to the target child once, after delay.
// It returns the reference of the delivery that can be used to cancel it.
func (x *System) ScheduleOnce(_ context.Context, payload any, target *Child, delay time.Duration) (string, error) {
	if !x.running.Load() {
		return "", errors.ErrSystemNotStarted
	}
	return x.scheduler.ScheduleOnce(NewMessage(payload), target, delay)
}

// Schedule delivers payload to the target child every interval
func (x *System) Schedule(_ context.Context, payload any, target *Child, interval time.Duration) (string, error) {
	if !x.running.Load() {
		return "", errors.ErrSystemNotStarted
	}
	return x.scheduler.Schedule(NewMessage(payload), target, interval)
}

// ScheduleWithCron delivers payload to the target child following the cron expression
func (x *System) ScheduleWithCron(_ context.Context, payload any, target *Child, cronExpression string) (string, error) {
	if !x.running.Load() {
		return "", errors.ErrSystemNotStarted
	}
	return x.scheduler.ScheduleWithCron(NewMessage(payload), target, cronExpression)
}

// CancelSchedule cancels the scheduled delivery identified by reference
func (x *System) CancelSchedule(reference string) error {
	if !x.running.Load() {
		return errors.ErrSystemNotStarted
	}
	return x.scheduler.Cancel(reference)
}
