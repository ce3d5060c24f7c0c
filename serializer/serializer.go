// Copyright 2024 The meshroute Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package serializer provides a single-threaded cooperative work
// serializer: tasks scheduled on it run one at a time, in submission
// order, on one dedicated goroutine. Components that share a serializer
// need no locks for state they only touch from scheduled tasks.
package serializer

import (
	"context"
	"sync"
)

// Serializer runs scheduled tasks sequentially on a single goroutine.
// Create one with New.
type Serializer struct {
	done chan struct{}
	wake chan struct{}

	mu      sync.Mutex
	pending []func()
	closed  bool
}

// New creates a serializer and starts its goroutine. The goroutine exits
// once ctx is cancelled and the task running at that point, if any, has
// returned; tasks still queued are dropped.
func New(ctx context.Context) *Serializer {
	s := &Serializer{
		done: make(chan struct{}),
		wake: make(chan struct{}, 1),
	}
	go s.run(ctx)
	return s
}

// Schedule enqueues a task. It reports false, dropping the task, once the
// serializer's context has been cancelled. A true return means the task
// will run unless cancellation arrives first.
func (s *Serializer) Schedule(task func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.pending = append(s.pending, task)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Done returns a channel closed once the serializer goroutine has exited.
func (s *Serializer) Done() <-chan struct{} {
	return s.done
}

func (s *Serializer) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.closed = true
			s.pending = nil
			s.mu.Unlock()
			return
		case <-s.wake:
		}
		for {
			s.mu.Lock()
			if len(s.pending) == 0 {
				s.mu.Unlock()
				break
			}
			task := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()
			task()
			select {
			case <-ctx.Done():
				s.mu.Lock()
				s.closed = true
				s.pending = nil
				s.mu.Unlock()
				return
			default:
			}
		}
	}
}
