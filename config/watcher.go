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
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tochemey/warden/log"
)

// DefaultDebounce is the quiet period observed after the last change of the
// file before it is reloaded
const DefaultDebounce = 250 * time.Millisecond

// ChangeFunc receives the configuration reloaded after a change of the file
type ChangeFunc func(file *File)

// WatchOption configures a Watcher
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period before a reload
func WithDebounce(debounce time.Duration) WatchOption {
	return func(w *Watcher) {
		if debounce > 0 {
			w.debounce = debounce
		}
	}
}

// WithWatchLogger sets the logger reporting reload failures
func WithWatchLogger(logger log.Logger) WatchOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// Watcher reloads a configuration file whenever it changes on disk.
// Files that fail to load are reported and skipped; the callback only
// ever sees valid configurations.
type Watcher struct {
	path     string
	onChange ChangeFunc
	debounce time.Duration
	logger   log.Logger

	fsWatcher *fsnotify.Watcher
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Watch starts watching the file at path. The parent directory is watched
// rather than the file so that editors replacing the file atomically are
// observed as well.
func Watch(ctx context.Context, path string, onChange ChangeFunc, opts ...WatchOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %s: %w", path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file system watcher: %w", err)
	}

	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch config file %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		path:      absPath,
		onChange:  onChange,
		debounce:  DefaultDebounce,
		logger:    log.DiscardLogger,
		fsWatcher: fsWatcher,
		cancel:    cancel,
	}

	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop(ctx)
	return w, nil
}

// Path returns the absolute path of the watched file
func (w *Watcher) Path() string {
	return w.path
}

// Close stops watching and waits for a reload in progress to complete
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.cancel()
		w.closeErr = w.fsWatcher.Close()
		w.wg.Wait()
	})
	return w.closeErr
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(w.debounce)
				continue
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Warnf("config file %s was removed", w.path)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("config watcher error: %v", err)

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	file, err := Load(w.path)
	if err != nil {
		w.logger.Errorf("failed to reload config file %s: %v", w.path, err)
		return
	}

	w.logger.Infof("config file %s reloaded", w.path)
	if w.onChange != nil {
		w.onChange(file)
	}
}
