// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncLogger wraps an io.Writer (typically a rotating file) with a
// bounded, channel-backed buffer drained by a single background
// goroutine, so a slow disk never blocks whichever worker goroutine is
// holding a tree lock and wants to log. A write that arrives while the
// buffer is full is dropped rather than blocking, with a diagnostic on
// stderr so drops are observable without back-pressuring callers.
type AsyncLogger struct {
	out     io.Writer
	entries chan []byte
	done    chan struct{}
	wg      sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// NewAsyncLogger starts the background writer goroutine and returns a
// ready-to-use AsyncLogger. bufferSize is the number of pending writes
// the channel may hold before new writes are dropped.
func NewAsyncLogger(w io.Writer, bufferSize int) *AsyncLogger {
	a := &AsyncLogger{
		out:     w,
		entries: make(chan []byte, bufferSize),
		done:    make(chan struct{}),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *AsyncLogger) run() {
	defer a.wg.Done()
	for p := range a.entries {
		if _, err := a.out.Write(p); err != nil {
			fmt.Fprintf(os.Stderr, "asynclogger: write failed: %v\n", err)
		}
	}
}

// Write implements io.Writer. It copies p (the caller may reuse its
// buffer) and enqueues it for the background goroutine. If the buffer is
// full, the message is dropped and a notice is printed to stderr.
func (a *AsyncLogger) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)

	select {
	case a.entries <- buf:
		return len(p), nil
	default:
		fmt.Fprintln(os.Stderr, "asynclogger: log buffer is full, dropping message.")
		return len(p), nil
	}
}

// Close closes the buffer channel, waits for the background goroutine
// to drain whatever is already buffered, and closes the underlying
// writer if it implements io.Closer. A Write issued after Close panics,
// since it sends on the closed channel.
func (a *AsyncLogger) Close() error {
	a.closeOnce.Do(func() {
		close(a.entries)
		a.wg.Wait()
		if c, ok := a.out.(io.Closer); ok {
			a.closeErr = c.Close()
		}
	})
	return a.closeErr
}
