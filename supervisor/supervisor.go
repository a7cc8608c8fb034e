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

package supervisor

import (
	"fmt"
	"sync"
	"time"

	"github.com/tochemey/warden/errors"
)

// Strategy represents the type of supervision strategy used by a supervisor.
// It defines which children are restarted when one of them faults.
type Strategy int

const (
	// OneForOneStrategy restarts only the child that faulted.
	// Siblings are not affected.
	OneForOneStrategy Strategy = iota

	// OneForAllStrategy restarts every child node of the supervisor when any one of them faults.
	// Use it when the children are tightly coupled and cannot run with a partially restarted set.
	OneForAllStrategy

	// RestForOneStrategy restarts the faulting child and every child declared after it,
	// in declaration order. Children declared before it keep running.
	// It fits pipelines where later stages depend on earlier ones.
	RestForOneStrategy
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case OneForOneStrategy:
		return "OneForOne"
	case OneForAllStrategy:
		return "OneForAll"
	case RestForOneStrategy:
		return "RestForOne"
	default:
		return ""
	}
}

// ParseStrategy converts a strategy name into a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "OneForOne", "one_for_one", "":
		return OneForOneStrategy, nil
	case "OneForAll", "one_for_all":
		return OneForAllStrategy, nil
	case "RestForOne", "rest_for_one":
		return RestForOneStrategy, nil
	default:
		return OneForOneStrategy, fmt.Errorf("%w: unknown strategy %q", errors.ErrInvalidConfig, name)
	}
}

// PolicyKind enumerates the restart policies of a children group
type PolicyKind int

const (
	// NeverKind stops a faulted member and removes it from the group
	NeverKind PolicyKind = iota
	// PermanentKind always restarts a faulted member
	PermanentKind
	// TriesKind restarts a faulted member a bounded number of consecutive times
	TriesKind
)

// RestartPolicy tells a children group what to do with a member that faulted
type RestartPolicy struct {
	kind  PolicyKind
	tries uint32
}

// Never returns the policy that never restarts a faulted member
func Never() RestartPolicy {
	return RestartPolicy{kind: NeverKind}
}

// Permanent returns the policy that always restarts a faulted member
func Permanent() RestartPolicy {
	return RestartPolicy{kind: PermanentKind}
}

// Tries returns the policy that restarts a faulted member until it has failed n
// consecutive times without processing a message successfully in between.
// The n-th consecutive failure stops the member and escalates a group fault.
func Tries(n uint32) RestartPolicy {
	return RestartPolicy{kind: TriesKind, tries: n}
}

// Kind returns the policy kind
func (p RestartPolicy) Kind() PolicyKind {
	return p.kind
}

// MaxTries returns the tries budget. It is zero for the Never and Permanent policies.
func (p RestartPolicy) MaxTries() uint32 {
	return p.tries
}

// Validate checks the policy
func (p RestartPolicy) Validate() error {
	if p.kind == TriesKind && p.tries == 0 {
		return fmt.Errorf("%w: Tries requires at least one attempt", errors.ErrInvalidConfig)
	}
	if p.kind < NeverKind || p.kind > TriesKind {
		return fmt.Errorf("%w: unknown restart policy", errors.ErrInvalidConfig)
	}
	return nil
}

// String returns the string representation of the policy
func (p RestartPolicy) String() string {
	switch p.kind {
	case NeverKind:
		return "Never"
	case PermanentKind:
		return "Permanent"
	case TriesKind:
		return fmt.Sprintf("Tries(%d)", p.tries)
	default:
		return ""
	}
}

// Decision is the outcome of applying a restart policy to a member fault
type Decision int

const (
	// Restart the member
	Restart Decision = iota
	// Stop the member and remove it from the group
	Stop
	// Escalate stops the member and reports a group fault to the supervisor
	Escalate
)

// String returns the string representation of the decision
func (d Decision) String() string {
	switch d {
	case Restart:
		return "Restart"
	case Stop:
		return "Stop"
	case Escalate:
		return "Escalate"
	default:
		return ""
	}
}

// Decide applies the policy to a member that has now failed consecutiveFailures times in a row
func (p RestartPolicy) Decide(consecutiveFailures uint32) Decision {
	switch p.kind {
	case NeverKind:
		return Stop
	case TriesKind:
		if consecutiveFailures >= p.tries {
			return Escalate
		}
		return Restart
	default:
		return Restart
	}
}

// Intensity bounds how many restarts a supervisor tolerates within a sliding time window
type Intensity struct {
	// MaxRestarts is the number of restarts allowed within Window
	MaxRestarts int
	// Window is the length of the sliding window
	Window time.Duration
}

// DefaultIntensity allows three restarts every five seconds
var DefaultIntensity = NewIntensity(3, 5*time.Second)

// NewIntensity creates an Intensity
func NewIntensity(maxRestarts int, window time.Duration) Intensity {
	return Intensity{MaxRestarts: maxRestarts, Window: window}
}

// Validate checks the intensity
func (i Intensity) Validate() error {
	if i.MaxRestarts < 0 {
		return fmt.Errorf("%w: max restarts must not be negative", errors.ErrInvalidConfig)
	}
	if i.Window <= 0 {
		return fmt.Errorf("%w: intensity window must be positive", errors.ErrInvalidConfig)
	}
	return nil
}

// String returns the string representation of the intensity
func (i Intensity) String() string {
	return fmt.Sprintf("%d/%s", i.MaxRestarts, i.Window)
}

// Limiter records fault timestamps in a sliding window and reports when the
// configured intensity is exceeded. Timestamps older than the window are pruned on
// every record, so faults spread over time never accumulate.
//
// Limiter is safe for concurrent use.
type Limiter struct {
	mu        sync.Mutex
	intensity Intensity
	faults    []time.Time
}

// NewLimiter creates a Limiter for the given intensity
func NewLimiter(intensity Intensity) *Limiter {
	return &Limiter{
		intensity: intensity,
		faults:    make([]time.Time, 0, intensity.MaxRestarts+1),
	}
}

// Record registers a fault observed at now and reports whether a restart is
// still within budget. It returns false when the number of faults inside the
// window, this one included, is greater than the allowed restarts.
func (l *Limiter) Record(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.intensity.Window)
	kept := l.faults[:0]
	for _, at := range l.faults {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	l.faults = append(kept, now)
	return len(l.faults) <= l.intensity.MaxRestarts
}

// Count returns the number of faults currently recorded in the window ending at now
func (l *Limiter) Count(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := now.Add(-l.intensity.Window)
	count := 0
	for _, at := range l.faults {
		if at.After(cutoff) {
			count++
		}
	}
	return count
}

// Reset forgets every recorded fault
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.faults = l.faults[:0]
	l.mu.Unlock()
}

// Intensity returns the configured intensity
func (l *Limiter) Intensity() Intensity {
	return l.intensity
}
