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

// State is the lifecycle state of a child incarnation
type State int32

const (
	// Starting means the factory and PreStart are running
	Starting State = iota
	// Running means the child processes messages
	Running
	// Faulted means the child raised a fault and waits for its supervisor's decision
	Faulted
	// Restarting means the supervisor is replacing the incarnation
	Restarting
	// Stopping means the child finishes its current work before it stops
	Stopping
	// Stopped is terminal
	Stopped
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Faulted:
		return "Faulted"
	case Restarting:
		return "Restarting"
	case Stopping:
		return "Stopping"
	case Stopped:
		return "Stopped"
	default:
		return ""
	}
}

// transitions lists the legal moves of the lifecycle state machine.
// Restarting and Stopped end an incarnation: the next incarnation of the slot
// starts over in Starting.
var transitions = map[State][]State{
	Starting: {Running, Faulted, Stopping},
	Running:  {Faulted, Stopping},
	Faulted:  {Restarting, Stopped},
	Stopping: {Stopped},
}

// canTransition reports whether the state machine allows moving from one state to another
func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
