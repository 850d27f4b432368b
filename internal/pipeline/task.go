package pipeline

import (
	"context"
	"sync"
	"time"
)

// Task is a handle on a background goroutine: Stop requests it to end,
// Wait waits for it with a bound.
type Task struct {
	name string
	stop func()
	done chan struct{}
}

// Go runs fn on a new goroutine. Stop cancels the ctx passed to fn.
func Go(name string, fn func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{name: name, stop: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		fn(ctx)
	}()
	return t
}

func (t *Task) Name() string { return t.name }

func (t *Task) Stop() { t.stop() }

func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait reports whether the task ended within timeout.
func (t *Task) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		<-t.done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.done:
		return true
	case <-timer.C:
		return false
	}
}

// Tasks tracks running tasks so shutdown can await them.
type Tasks struct {
	mu    sync.Mutex
	tasks []*Task
}

func NewTasks() *Tasks {
	return &Tasks{}
}

func (ts *Tasks) Go(name string, fn func(ctx context.Context)) *Task {
	t := Go(name, fn)
	ts.Add(t)
	return t
}

func (ts *Tasks) Add(t *Task) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.pruneLocked()
	ts.tasks = append(ts.tasks, t)
}

// Running returns the tasks that have not finished yet, oldest first.
func (ts *Tasks) Running() []*Task {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.pruneLocked()
	return append([]*Task(nil), ts.tasks...)
}

func (ts *Tasks) pruneLocked() {
	live := ts.tasks[:0]
	for _, t := range ts.tasks {
		if !t.Finished() {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(ts.tasks); i++ {
		ts.tasks[i] = nil
	}
	ts.tasks = live
}
