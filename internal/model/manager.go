package model

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Handle is a loaded model. Handles are not safe for concurrent use; the
// Manager never hands one to more than one caller at a time.
type Handle interface {
	Transcribe(ctx context.Context, path string) (string, error)
	Close() error
}

// Backend knows how to bring a model into memory.
type Backend interface {
	Name() string
	Load(ctx context.Context) (Handle, error)
}

// Observer receives lifecycle events, typically for metrics.
type Observer interface {
	ModelLoaded(d time.Duration, err error)
	ModelUnloaded()
}

// Manager owns at most one loaded model and serializes every physical
// load, unload and transcription against it.
type Manager struct {
	backend  Backend
	observer Observer

	// lifecycle is held for the duration of a physical load, an unload or a
	// transcription so the model is never torn down while in use.
	lifecycle sync.Mutex

	mu      sync.Mutex // guards handle and pending
	handle  Handle
	pending *Signal
}

func NewManager(backend Backend, observer Observer) *Manager {
	return &Manager{backend: backend, observer: observer}
}

// BeginLoad starts loading the model in the background and returns a signal
// that completes when it is ready. Calls made while a load is in flight share
// its signal; calls made while loaded return a satisfied signal.
func (m *Manager) BeginLoad() *Signal {
	m.mu.Lock()
	if m.handle != nil {
		m.mu.Unlock()
		return Completed(nil)
	}
	if m.pending != nil {
		s := m.pending
		m.mu.Unlock()
		return s
	}
	s := newSignal()
	m.pending = s
	m.mu.Unlock()

	go m.load(s)
	return s
}

func (m *Manager) load(s *Signal) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	if m.handle != nil {
		// a synchronous load beat us to it
		if m.pending == s {
			m.pending = nil
		}
		m.mu.Unlock()
		s.complete(nil)
		return
	}
	m.mu.Unlock()

	h, err := m.loadLocked(context.Background())

	m.mu.Lock()
	if err == nil {
		m.handle = h
	}
	if m.pending == s {
		m.pending = nil
	}
	m.mu.Unlock()

	s.complete(err)
}

// loadLocked performs the physical load. Caller holds lifecycle.
func (m *Manager) loadLocked(ctx context.Context) (Handle, error) {
	log.Printf("Model: loading %s model", m.backend.Name())
	start := time.Now()
	h, err := m.backend.Load(ctx)
	elapsed := time.Since(start)
	if m.observer != nil {
		m.observer.ModelLoaded(elapsed, err)
	}
	if err != nil {
		log.Printf("Model: load failed after %v: %v", elapsed, err)
		return nil, &LoadError{Backend: m.backend.Name(), Err: err}
	}
	log.Printf("Model: %s model loaded in %v", m.backend.Name(), elapsed)
	return h, nil
}

// Unload releases the model. It waits for an in-flight load to finish first
// and is a no-op when nothing is loaded.
func (m *Manager) Unload() error {
	if s := m.pendingSignal(); s != nil {
		<-s.Done()
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	h := m.handle
	m.handle = nil
	m.mu.Unlock()

	if h == nil {
		return nil
	}

	err := h.Close()
	if m.observer != nil {
		m.observer.ModelUnloaded()
	}
	if err != nil {
		log.Printf("Model: error releasing model: %v", err)
		return fmt.Errorf("unload model: %w", err)
	}
	log.Printf("Model: unloaded")
	return nil
}

// UnloadContext is Unload with the wait bounded by ctx. When ctx ends first
// the unload carries on in the background and releases the model as soon as
// the load or transcription holding it finishes.
func (m *Manager) UnloadContext(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- m.Unload() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Printf("Model: unload still waiting, releasing in the background")
		return fmt.Errorf("unload model: %w", ctx.Err())
	}
}

// Transcribe runs the model on the wav file at path. If the model is not
// loaded it is loaded synchronously first.
func (m *Manager) Transcribe(ctx context.Context, path string) (string, error) {
	if s := m.pendingSignal(); s != nil {
		// failure here is retried synchronously below
		_ = s.Wait(ctx)
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	h := m.handle
	m.mu.Unlock()

	if h == nil {
		log.Printf("Model: not loaded at transcription time, loading synchronously")
		var err error
		h, err = m.loadLocked(ctx)
		if err != nil {
			return "", err
		}
		m.mu.Lock()
		m.handle = h
		m.mu.Unlock()
	}

	return h.Transcribe(ctx, path)
}

// Loaded reports whether a model is currently held in memory.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil
}

// Loading reports whether a background load is in flight.
func (m *Manager) Loading() bool {
	return m.pendingSignal() != nil
}

// Pending returns the signal of the load in flight, or nil.
func (m *Manager) Pending() *Signal {
	return m.pendingSignal()
}

func (m *Manager) pendingSignal() *Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// BackendName returns the configured backend's name.
func (m *Manager) BackendName() string {
	return m.backend.Name()
}
