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

package oslib

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tochemey/warden/log"
)

var (
	hookLocker   sync.Mutex
	shutdownHook ShutdownHook
)

// ShutdownHook is executed on receiving SIGTERM or SIGINT signal.
type ShutdownHook func() error

// RegisterShutdownHook registers the ShutdownHook in a thread-safe manner
func RegisterShutdownHook(hook ShutdownHook) {
	hookLocker.Lock()
	shutdownHook = hook
	hookLocker.Unlock()
}

// HandleInterrupts runs the registered shutdown hook once when the process receives
// SIGINT or SIGTERM. Signal handling stops when the context is done or after the hook ran.
func HandleInterrupts(ctx context.Context, logger log.Logger) {
	notifier := make(chan os.Signal, 1)
	signal.Notify(notifier, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(notifier)
		select {
		case sig := <-notifier:
			hookLocker.Lock()
			hook := shutdownHook
			hookLocker.Unlock()

			logger.Infof("received an OS signal (%s) to shutdown", sig.String())
			if hook == nil {
				return
			}

			if err := hook(); err != nil {
				logger.Error(err)
			}
		case <-ctx.Done():
		}
	}()
}
