// Copyright DataPlaneBroker Authors
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

// Package listener provides the asynchronous delivery plumbing that every
// network uses to fan out a service's status transitions to its
// listeners without ever invoking a listener while holding a service or
// network mutex.
package listener

import "sync"

// Executor runs posted tasks one at a time, in the order they were
// posted, on a single background goroutine. Every network is given an
// Executor when it is created (one Executor may serve several networks)
// and shares it across all of its services: this is what lets a
// sub-service's status callback run without re-entering the parent
// service's (or its own) mutex, while still guaranteeing that the
// transitions emitted for any one service are delivered to its listeners
// in the order they occurred.
type Executor struct {
	mu      sync.Mutex
	tasks   []func()
	signal  chan struct{}
	started bool
}

// NewExecutor creates an Executor and starts its worker goroutine.
func NewExecutor() *Executor {
	e := &Executor{signal: make(chan struct{}, 1)}
	e.started = true
	go e.run()
	return e
}

// Post enqueues a task for later, serialized execution. Post never
// blocks and never runs task synchronously, so it is always safe to call
// while holding a lock.
func (e *Executor) Post(task func()) {
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()
	select {
	case e.signal <- struct{}{}:
	default:
	}
}

func (e *Executor) run() {
	for {
		e.mu.Lock()
		if len(e.tasks) == 0 {
			e.mu.Unlock()
			<-e.signal
			continue
		}
		task := e.tasks[0]
		e.tasks = e.tasks[1:]
		e.mu.Unlock()
		task()
	}
}
