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

// Package workerpool runs submitted work on a fixed number of goroutines
// split across two tiers, so a backlog of ordinary commands can never
// starve higher-priority work out of a runnable worker.
package workerpool

import (
	"errors"
	"sync"
)

// Pool runs jobs submitted to either its priority or normal tier on a
// fixed set of goroutines per tier. The priority tier is sized for work
// that must not wait behind a backlog on the normal tier.
type Pool struct {
	priorityJobs chan func()
	normalJobs   chan func()

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewStaticWorkerPool starts priorityWorker goroutines servicing the
// priority tier and normalWorker goroutines servicing the normal tier.
// At least one worker, of either tier, is required.
func NewStaticWorkerPool(priorityWorker, normalWorker uint32) (*Pool, error) {
	if priorityWorker == 0 && normalWorker == 0 {
		return nil, errors.New("workerpool: at least one priority or normal worker is required")
	}

	p := &Pool{
		priorityJobs: make(chan func()),
		normalJobs:   make(chan func()),
	}

	for i := uint32(0); i < priorityWorker; i++ {
		p.wg.Add(1)
		go p.runPriorityWorker()
	}
	for i := uint32(0); i < normalWorker; i++ {
		p.wg.Add(1)
		go p.runNormalWorker()
	}

	return p, nil
}

// runPriorityWorker services the priority tier first, falling back to the
// normal tier whenever there is no priority work pending, so priority
// workers never sit idle while normal work is queued.
func (p *Pool) runPriorityWorker() {
	defer p.wg.Done()
	for {
		select {
		case fn, ok := <-p.priorityJobs:
			if !ok {
				return
			}
			fn()
		default:
			select {
			case fn, ok := <-p.priorityJobs:
				if !ok {
					return
				}
				fn()
			case fn, ok := <-p.normalJobs:
				if !ok {
					p.drainPriority()
					return
				}
				fn()
			}
		}
	}
}

// drainPriority runs out any priority work still pending after the
// normal-job channel has been closed, so a priority worker that wakes on
// normalJobs closing doesn't abandon queued priority work.
func (p *Pool) drainPriority() {
	for fn := range p.priorityJobs {
		fn()
	}
}

func (p *Pool) runNormalWorker() {
	defer p.wg.Done()
	for fn := range p.normalJobs {
		fn()
	}
}

// SubmitPriority queues fn on the priority tier, blocking until a
// priority worker is free to accept it.
func (p *Pool) SubmitPriority(fn func()) {
	p.priorityJobs <- fn
}

// SubmitNormal queues fn on the normal tier, blocking until a normal
// worker is free to accept it.
func (p *Pool) SubmitNormal(fn func()) {
	p.normalJobs <- fn
}

// Stop closes both tiers and waits for every worker to finish its
// current job and exit. It is safe to call on a nil Pool, so a caller
// that received an error from NewStaticWorkerPool can defer Stop()
// unconditionally.
func (p *Pool) Stop() {
	if p == nil {
		return
	}
	p.stopOnce.Do(func() {
		close(p.priorityJobs)
		close(p.normalJobs)
	})
	p.wg.Wait()
}
