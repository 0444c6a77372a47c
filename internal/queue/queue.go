// Copyright 2024 Google LLC
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

// Package queue implements the bounded producer/consumer buffer between
// the transport goroutine that reads requests off the wire and the
// worker pool that executes them.
package queue

import "net"

// Command is the parsed, in-memory form of one wire-protocol line,
// carried through the queue from the transport's receive loop to a
// worker. ReplyTo is where the worker must send the status datagram
// back; it is nil for requests with no reply address.
type Command struct {
	Opcode string
	Args   []string

	ReplyTo net.Addr
}

// Queue is a fixed-capacity FIFO of Commands. A Go buffered channel's
// blocking send/receive already provides the not-full/not-empty
// condition-variable pair a hand-rolled ring buffer would need, so this
// is a thin wrapper rather than a from-scratch buffer implementation.
type Queue struct {
	commands chan Command
	closed   chan struct{}
}

// New returns a Queue with room for capacity pending commands.
func New(capacity int) *Queue {
	return &Queue{
		commands: make(chan Command, capacity),
		closed:   make(chan struct{}),
	}
}

// Insert enqueues cmd, blocking while the queue is full. It returns
// false without blocking forever if the queue has been closed in the
// meantime.
func (q *Queue) Insert(cmd Command) bool {
	select {
	case <-q.closed:
		return false
	default:
	}

	select {
	case q.commands <- cmd:
		return true
	case <-q.closed:
		return false
	}
}

// Remove blocks until a command is available or the queue is closed and
// drained, mirroring spec's "closed" return when eof && count == 0.
// Commands enqueued before Close is observed are still delivered.
func (q *Queue) Remove() (Command, bool) {
	select {
	case cmd := <-q.commands:
		return cmd, true
	default:
	}

	select {
	case cmd := <-q.commands:
		return cmd, true
	case <-q.closed:
		select {
		case cmd := <-q.commands:
			return cmd, true
		default:
			return Command{}, false
		}
	}
}

// Close signals that no further commands will be inserted. Already
// queued commands are still delivered to Remove until the buffer
// drains, after which Remove reports closed. Idempotent.
func (q *Queue) Close() {
	select {
	case <-q.closed:
	default:
		close(q.closed)
	}
}
