// Package dispatch provides the scheduling primitive the negotiator runs on:
// a thread-safe FIFO work queue posted to from any goroutine and drained once
// per tick of the controlling loop.
package dispatch

import "sync"

// Poster is the narrow interface handed to collaborators that only need to
// marshal work onto the controlling context.
type Poster interface {
	Post(fn func())
}

// Queue is a FIFO task queue. Post may be called from any goroutine; Drain
// must only be called from the controlling context.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Post appends a task to be run on the next Drain.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
}

// Drain runs every task queued so far, in posting order. Tasks posted while
// draining run on the following Drain, keeping each tick bounded.
func (q *Queue) Drain() {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
}
