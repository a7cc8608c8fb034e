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
	"time"
)

// supervisionSignal is a fault reported to a supervisor loop
type supervisionSignal struct {
	err       error
	timestamp time.Time
}

func newSupervisionSignal(err error) supervisionSignal {
	return supervisionSignal{
		err:       err,
		timestamp: time.Now(),
	}
}

// faultSignal reports the fault of a child incarnation to its supervisor
type faultSignal struct {
	supervisionSignal
	child *Child
	inc   *incarnation
}

// escalationSignal reports a nested supervisor that gave up to its parent
type escalationSignal struct {
	supervisionSignal
	from       *Supervisor
	generation ID
}

// request runs fn on the supervisor loop
type request struct {
	fn   func()
	done chan struct{}
}
