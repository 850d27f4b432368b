package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/whisperclip/whisperclip/internal/model"
)

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// TestContext returns a context bounded to a few seconds.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// FakeBackend is a model.Backend with controllable latency and failures.
type FakeBackend struct {
	mu sync.Mutex

	LoadDelay       time.Duration
	LoadErr         error
	TranscribeDelay time.Duration
	TranscribeErr   error
	// Text maps a clip path to its transcript. Defaults to the file's base name.
	Text func(path string) string

	loads       atomic.Int32
	closes      atomic.Int32
	transcribed []string
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{}
}

func (b *FakeBackend) Name() string { return "fake" }

func (b *FakeBackend) Load(ctx context.Context) (model.Handle, error) {
	b.mu.Lock()
	delay, err := b.LoadDelay, b.LoadErr
	b.mu.Unlock()

	time.Sleep(delay)
	b.loads.Add(1)
	if err != nil {
		return nil, err
	}
	return &fakeHandle{backend: b}, nil
}

func (b *FakeBackend) SetLoadDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.LoadDelay = d
}

func (b *FakeBackend) SetTranscribeErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.TranscribeErr = err
}

func (b *FakeBackend) Loads() int  { return int(b.loads.Load()) }
func (b *FakeBackend) Closes() int { return int(b.closes.Load()) }

// Transcribed returns the paths transcribed so far, in order.
func (b *FakeBackend) Transcribed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.transcribed...)
}

type fakeHandle struct {
	backend *FakeBackend
	closed  atomic.Bool
}

func (h *fakeHandle) Transcribe(ctx context.Context, path string) (string, error) {
	if h.closed.Load() {
		return "", errors.New("transcribe on closed handle")
	}

	b := h.backend
	b.mu.Lock()
	delay, err, text := b.TranscribeDelay, b.TranscribeErr, b.Text
	b.mu.Unlock()

	time.Sleep(delay)

	b.mu.Lock()
	b.transcribed = append(b.transcribed, path)
	b.mu.Unlock()

	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return "", statErr
	}
	if text != nil {
		return text(path), nil
	}
	return filepath.Base(path), nil
}

func (h *fakeHandle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	h.backend.closes.Add(1)
	return nil
}

// RecordingSink collects delivered transcripts.
type RecordingSink struct {
	mu    sync.Mutex
	texts []string
	Err   error
	Delay time.Duration
}

func (s *RecordingSink) Deliver(ctx context.Context, text string) error {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

func (s *RecordingSink) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// CountingNotifier counts notifications.
type CountingNotifier struct {
	saved    atomic.Int32
	started  atomic.Int32
	stopped  atomic.Int32
	failures atomic.Int32
}

func (n *CountingNotifier) Saved() { n.saved.Add(1) }

func (n *CountingNotifier) RecordingChanged(on bool) {
	if on {
		n.started.Add(1)
		return
	}
	n.stopped.Add(1)
}

func (n *CountingNotifier) Error(msg string) { n.failures.Add(1) }

func (n *CountingNotifier) SavedCount() int   { return int(n.saved.Load()) }
func (n *CountingNotifier) StartedCount() int { return int(n.started.Load()) }
func (n *CountingNotifier) StoppedCount() int { return int(n.stopped.Load()) }
func (n *CountingNotifier) ErrorCount() int   { return int(n.failures.Load()) }

// FakeSource emits scripted audio chunks. With no FailWith it keeps emitting
// silence until cancelled.
type FakeSource struct {
	// Chunks are emitted first, in order.
	Chunks [][]float32
	// ChunkSize of trailing silence emitted after Chunks; 0 means emit nothing more.
	ChunkSize int
	Interval  time.Duration
	// FailWith is returned after Chunks are emitted.
	FailWith error
	// FailOnOpen returns FailWith before emitting anything.
	FailOnOpen bool

	runs    atomic.Int32
	emitted atomic.Int64
}

func (s *FakeSource) Name() string { return "fake" }

func (s *FakeSource) Run(ctx context.Context, emit func([]float32)) error {
	s.runs.Add(1)
	if s.FailOnOpen {
		return s.FailWith
	}

	for _, c := range s.Chunks {
		if ctx.Err() != nil {
			return nil
		}
		emit(c)
		s.emitted.Add(int64(len(c)))
	}
	if s.FailWith != nil {
		return s.FailWith
	}

	interval := s.Interval
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if s.ChunkSize > 0 {
				emit(make([]float32, s.ChunkSize))
				s.emitted.Add(int64(s.ChunkSize))
			}
		}
	}
}

func (s *FakeSource) Runs() int      { return int(s.runs.Load()) }
func (s *FakeSource) Emitted() int64 { return s.emitted.Load() }

// WriteFile creates a file with content under dir and returns its path.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ListDir returns the names of entries in dir.
func ListDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
