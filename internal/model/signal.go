package model

import (
	"context"
	"sync"
)

// Signal is a one-shot readiness indicator for a model load. It completes
// exactly once, carrying the load error if there was one.
type Signal struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Completed returns a signal that is already satisfied with err.
func Completed(err error) *Signal {
	s := newSignal()
	s.complete(err)
	return s
}

func (s *Signal) complete(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

// Done is closed once the load has finished, successfully or not.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Ready reports whether the load has finished.
func (s *Signal) Ready() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Err returns the load error. Only meaningful once Ready is true.
func (s *Signal) Err() error {
	if !s.Ready() {
		return nil
	}
	return s.err
}

// Wait blocks until the load finishes or ctx is done.
func (s *Signal) Wait(ctx context.Context) error {
	if s.Ready() {
		return s.err
	}
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
