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

// Package transport implements the UNIX datagram request/reply loop: one
// goroutine owns the listening socket and is the sole producer into the
// bounded command queue; the worker pool's normal-tier workers are the
// consumers, and the priority tier runs the print barrier.
package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/tecnicofs-project/tecnicofs/internal/dispatch"
	"github.com/tecnicofs-project/tecnicofs/internal/logger"
	"github.com/tecnicofs-project/tecnicofs/internal/queue"
	"github.com/tecnicofs-project/tecnicofs/internal/tree"
	"github.com/tecnicofs-project/tecnicofs/internal/workerpool"
)

const maxDatagramSize = 4096

// Server receives one ASCII command per datagram on a UNIX domain
// socket, queues it for a worker, and writes the status reply back to
// the address the request came from.
type Server struct {
	tree *tree.Tree
	conn *net.UnixConn

	queue         *queue.Queue
	pool          *workerpool.Pool
	printRequests chan queue.Command
	barrier       *barrier

	serveDone chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewServer binds a UNIX datagram socket at socketPath (removing any
// stale socket file left behind by a previous run) and starts
// numThreads normal-tier workers draining the bounded command queue
// plus priorityWorkers workers dedicated to the print barrier.
func NewServer(socketPath string, t *tree.Tree, queueCapacity, numThreads, priorityWorkers int) (*Server, error) {
	if numThreads <= 0 {
		return nil, fmt.Errorf("transport: numThreads must be positive, got %d", numThreads)
	}
	if priorityWorkers <= 0 {
		return nil, fmt.Errorf("transport: priorityWorkers must be positive, got %d", priorityWorkers)
	}

	_ = os.Remove(socketPath)
	addr, err := net.ResolveUnixAddr("unixgram", socketPath)
	if err != nil {
		return nil, fmt.Errorf("transport: resolving socket path %q: %w", socketPath, err)
	}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listening on %q: %w", socketPath, err)
	}

	pool, err := workerpool.NewStaticWorkerPool(uint32(priorityWorkers), uint32(numThreads))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: starting worker pool: %w", err)
	}

	s := &Server{
		tree:          t,
		conn:          conn,
		queue:         queue.New(queueCapacity),
		pool:          pool,
		printRequests: make(chan queue.Command, priorityWorkers),
		barrier:       newBarrier(numThreads + priorityWorkers),
		serveDone:     make(chan struct{}),
	}

	// Priority jobs go first: priority-tier goroutines also accept normal
	// jobs, so one that took a normal loop would leave a print loop with
	// no priority-tier goroutine to run it.
	for i := 0; i < priorityWorkers; i++ {
		s.pool.SubmitPriority(s.runPriorityWorker)
	}
	for i := 0; i < numThreads; i++ {
		s.pool.SubmitNormal(s.runNormalWorker)
	}

	return s, nil
}

// SocketPath returns the path the listening socket is bound to.
func (s *Server) SocketPath() string {
	return s.conn.LocalAddr().String()
}

// Serve reads datagrams until the socket is closed by Close, routing
// each parsed command to either the bounded queue (normal opcodes) or
// directly to the priority tier (print). It returns nil once the
// listening socket has been closed.
func (s *Server) Serve() error {
	defer close(s.serveDone)

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := s.conn.ReadFromUnix(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("transport: reading request: %w", err)
		}

		cmd, err := dispatch.Parse(string(buf[:n]))
		if err != nil {
			logger.Debugf("transport: %v", err)
			s.reply(addr, dispatch.StatusFail)
			continue
		}
		cmd.ReplyTo = addr

		if dispatch.IsPrint(cmd.Opcode) {
			s.printRequests <- cmd
			continue
		}
		if !s.queue.Insert(cmd) {
			s.reply(addr, dispatch.StatusFail)
		}
	}
}

// Close stops accepting new requests, waits for Serve to return so no
// goroutine can still be routing a request into a channel this then
// closes, and shuts the worker pool down once in-flight work drains.
// Close assumes Serve is running (or has already returned); calling
// Close without ever starting Serve blocks forever.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
		<-s.serveDone
		s.queue.Close()
		close(s.printRequests)
		s.pool.Stop()
	})
	return s.closeErr
}

func (s *Server) runNormalWorker() {
	for {
		s.barrier.awaitClear()
		s.barrier.markIdle()
		cmd, ok := s.queue.Remove()
		s.barrier.markActive()
		if !ok {
			return
		}
		status := dispatch.Execute(s.tree, cmd)
		s.reply(cmd.ReplyTo, status)
	}
}

// runPriorityWorker drains printRequests forever. It marks itself idle
// while waiting for the next dump request so that waitForQuiescence, run
// by any priority-tier worker, counts it correctly: with priorityWorkers
// > 1 a worker that has already popped its own print request still
// blocks in lockPrint (not yet markActive) while another dump is in
// flight, and must keep counting as idle until it actually starts
// printing, or the two workers would deadlock waiting on each other.
func (s *Server) runPriorityWorker() {
	for {
		s.barrier.markIdle()
		cmd, ok := <-s.printRequests
		if !ok {
			return
		}

		s.barrier.lockPrint()
		s.barrier.markActive()
		s.barrier.waitForQuiescence()
		status := dispatch.ExecutePrint(s.tree, cmd.Args[0])
		s.barrier.release()
		s.barrier.unlockPrint()

		s.reply(cmd.ReplyTo, status)
	}
}

func (s *Server) reply(addr net.Addr, status string) {
	if addr == nil {
		return
	}
	unixAddr, ok := addr.(*net.UnixAddr)
	if !ok {
		return
	}
	if _, err := s.conn.WriteToUnix([]byte(status), unixAddr); err != nil {
		logger.Warnf("transport: writing reply to %s: %v", addr, err)
	}
}
