package recording

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// ErrDevice marks failures of the audio device itself, as opposed to
// configuration mistakes.
var ErrDevice = errors.New("audio device error")

// ChunkFunc receives captured mono float32 samples in arrival order. The
// slice is owned by the callee.
type ChunkFunc = func(samples []float32)

// Source produces audio until ctx is cancelled. Run returns nil on a clean
// stop and an error when the device fails to open or dies mid stream.
type Source interface {
	Name() string
	Run(ctx context.Context, emit ChunkFunc) error
}

type Config struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
	Device          string
}

func DefaultConfig() Config {
	return Config{
		SampleRate:      44100,
		Channels:        1,
		FramesPerBuffer: 1024,
		Device:          "",
	}
}

func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", c.SampleRate)
	}
	if c.Channels != 1 {
		return fmt.Errorf("invalid Channels: %d (only mono capture is supported)", c.Channels)
	}
	if c.FramesPerBuffer <= 0 {
		return fmt.Errorf("invalid FramesPerBuffer: %d", c.FramesPerBuffer)
	}
	return nil
}

// CaptureError is reported when a source fails.
type CaptureError struct {
	Source string
	Err    error
}

func (e *CaptureError) Error() string {
	if e == nil || e.Err == nil {
		return "capture error"
	}
	return fmt.Sprintf("%s capture: %v", e.Source, e.Err)
}

func (e *CaptureError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsCaptureError(err error) bool {
	var ce *CaptureError
	return errors.As(err, &ce)
}

// Recorder runs one Source at a time on a background goroutine.
type Recorder struct {
	source    Source
	recording atomic.Bool

	mu     sync.Mutex // guards cancel and done
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRecorder(source Source) *Recorder {
	return &Recorder{source: source}
}

func (r *Recorder) IsRecording() bool {
	return r.recording.Load()
}

// Start launches capture and returns immediately. Chunks go to emit from the
// capture goroutine. The returned channel yields at most one *CaptureError
// and is closed when capture ends.
func (r *Recorder) Start(ctx context.Context, emit ChunkFunc) (<-chan error, error) {
	if !r.recording.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("already recording")
	}

	captureCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go r.captureLoop(captureCtx, emit, errCh, done)
	return errCh, nil
}

func (r *Recorder) captureLoop(ctx context.Context, emit ChunkFunc, errCh chan<- error, done chan struct{}) {
	defer func() {
		r.Stop()
		r.recording.Store(false)
		close(errCh)
		close(done)
	}()

	log.Printf("Recording: starting %s capture", r.source.Name())
	err := r.source.Run(ctx, emit)
	if err != nil && ctx.Err() == nil {
		err = &CaptureError{Source: r.source.Name(), Err: err}
		log.Printf("Recording error: %v", err)
		errCh <- err
		return
	}
	log.Printf("Recording: %s capture stopped", r.source.Name())
}

// Stop cancels capture without waiting for the source to return.
func (r *Recorder) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the capture goroutine has exited or timeout elapses.
// It reports whether the goroutine exited.
func (r *Recorder) Wait(timeout time.Duration) bool {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
