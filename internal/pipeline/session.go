package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/whisperclip/whisperclip/internal/audio"
	"github.com/whisperclip/whisperclip/internal/model"
	"github.com/whisperclip/whisperclip/internal/recording"
	"github.com/whisperclip/whisperclip/internal/transcriber"
)

type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// captureStopTimeout bounds how long Stop waits for the source to flush its
// last chunk.
const captureStopTimeout = time.Second

// Model is the part of the model manager a session drives.
type Model interface {
	BeginLoad() *model.Signal
	Unload() error
}

// Jobs receives finished clips.
type Jobs interface {
	Push(job transcriber.Job) error
	Len() int
}

// Observer receives session events, typically for metrics.
type Observer interface {
	RecordingStarted()
	RecordingStopped(d time.Duration, samples int)
	CaptureFailed()
	JobEnqueued(depth int)
}

type SessionConfig struct {
	// OutputDir receives the wav clips.
	OutputDir string
	// SampleRate must match the rate the source captures at.
	SampleRate int
}

// Session is the Idle/Recording state machine behind the toggle. Start and
// Stop never wait on a model load.
type Session struct {
	config   SessionConfig
	source   recording.Source
	model    Model
	jobs     Jobs
	tasks    *Tasks
	observer Observer

	mu        sync.Mutex
	state     State
	degraded  bool
	closed    bool
	stopping  bool
	gen       uint64
	chunks    [][]float32
	signal    *model.Signal
	recorder  *recording.Recorder
	startedAt time.Time

	onState []func(from, to State)
	onError []func(error)
	onJob   []func(transcriber.Job)
}

func NewSession(config SessionConfig, source recording.Source, m Model, jobs Jobs, tasks *Tasks, observer Observer) *Session {
	if config.SampleRate <= 0 {
		config.SampleRate = audio.CaptureSampleRate
	}
	if tasks == nil {
		tasks = NewTasks()
	}
	return &Session{
		config:   config,
		source:   source,
		model:    m,
		jobs:     jobs,
		tasks:    tasks,
		observer: observer,
	}
}

// OnStateChange registers fn to run after every state transition.
func (s *Session) OnStateChange(fn func(from, to State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = append(s.onState, fn)
}

// OnCaptureError registers fn to run once per capture failure.
func (s *Session) OnCaptureError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = append(s.onError, fn)
}

// OnJobQueued registers fn to run after a clip has been queued.
func (s *Session) OnJobQueued(fn func(transcriber.Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onJob = append(s.onJob, fn)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Degraded reports whether the last recording ended in a capture failure.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Session) Toggle() bool {
	if s.State() == Idle {
		return s.Start()
	}
	return s.Stop()
}

// Start begins recording. It returns false unless the session was Idle.
func (s *Session) Start() bool {
	s.mu.Lock()
	if s.closed || s.state != Idle {
		s.mu.Unlock()
		return false
	}

	s.gen++
	gen := s.gen
	s.chunks = nil
	s.signal = s.model.BeginLoad()
	s.degraded = false
	s.state = Recording
	s.startedAt = time.Now()

	rec := recording.NewRecorder(s.source)
	s.recorder = rec
	errCh, err := rec.Start(context.Background(), func(samples []float32) {
		s.appendChunk(gen, samples)
	})
	s.mu.Unlock()

	log.Printf("Session: recording started")
	if s.observer != nil {
		s.observer.RecordingStarted()
	}
	s.fireState(Idle, Recording)

	if err != nil {
		s.captureFailed(gen, &recording.CaptureError{Source: s.source.Name(), Err: err})
		return true
	}

	s.tasks.Go("capture", func(ctx context.Context) {
		stop := context.AfterFunc(ctx, rec.Stop)
		defer stop()
		for err := range errCh {
			s.captureFailed(gen, err)
		}
	})
	return true
}

func (s *Session) appendChunk(gen uint64, samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != Recording {
		return
	}
	s.chunks = append(s.chunks, samples)
}

// Stop ends recording and queues the clip. It returns false unless the
// session was Recording.
func (s *Session) Stop() bool {
	s.mu.Lock()
	if s.state != Recording || s.stopping {
		s.mu.Unlock()
		return false
	}
	s.stopping = true
	rec := s.recorder
	s.mu.Unlock()

	if rec != nil {
		rec.Stop()
		if !rec.Wait(captureStopTimeout) {
			log.Printf("Session: capture did not stop within %v, dropping late audio", captureStopTimeout)
		}
	}

	s.mu.Lock()
	s.gen++
	chunks := s.chunks
	s.chunks = nil
	signal := s.signal
	s.signal = nil
	s.recorder = nil
	s.state = Idle
	s.stopping = false
	elapsed := time.Since(s.startedAt)
	s.mu.Unlock()

	samples := audio.Concat(chunks)
	log.Printf("Session: recording stopped after %v (%d chunks, %d samples)", elapsed.Round(time.Millisecond), len(chunks), len(samples))
	if s.observer != nil {
		s.observer.RecordingStopped(elapsed, len(samples))
	}
	s.fireState(Recording, Idle)

	if len(chunks) == 0 {
		s.unloadWhenReady(signal)
		return true
	}

	job, err := s.writeClip(samples, signal)
	if err != nil {
		log.Printf("Session: %v", err)
		s.unloadWhenReady(signal)
		return true
	}

	if s.observer != nil {
		s.observer.JobEnqueued(s.jobs.Len())
	}
	for _, fn := range s.jobListeners() {
		fn(job)
	}
	return true
}

func (s *Session) writeClip(samples []float32, signal *model.Signal) (transcriber.Job, error) {
	if err := os.MkdirAll(s.config.OutputDir, 0o755); err != nil {
		return transcriber.Job{}, fmt.Errorf("create output dir: %w", err)
	}

	path := audio.ArtifactPath(s.config.OutputDir, time.Now())
	if err := audio.WriteWAV(path, samples, s.config.SampleRate); err != nil {
		return transcriber.Job{}, fmt.Errorf("write clip %s: %w", path, err)
	}

	job := transcriber.NewJob(path, signal)
	if err := s.jobs.Push(job); err != nil {
		os.Remove(path)
		return transcriber.Job{}, fmt.Errorf("queue clip %s: %w", path, err)
	}
	log.Printf("Session: queued job %s (%s)", job.ID, path)
	return job, nil
}

// captureFailed forces the session back to Idle after the source died. The
// partial clip is dropped.
func (s *Session) captureFailed(gen uint64, err error) {
	s.mu.Lock()
	if s.gen != gen || s.state != Recording || s.stopping {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.chunks = nil
	signal := s.signal
	s.signal = nil
	rec := s.recorder
	s.recorder = nil
	s.state = Idle
	s.degraded = true
	listeners := slices.Clone(s.onError)
	s.mu.Unlock()

	if rec != nil {
		rec.Stop()
	}
	log.Printf("Session: capture failed, recording discarded: %v", err)
	if s.observer != nil {
		s.observer.CaptureFailed()
	}
	s.fireState(Recording, Idle)
	for _, fn := range listeners {
		fn(err)
	}
	s.unloadWhenReady(signal)
}

// unloadWhenReady releases the model once the load started for this
// recording has settled.
func (s *Session) unloadWhenReady(signal *model.Signal) {
	s.tasks.Go("unload", func(ctx context.Context) {
		if signal != nil {
			if err := signal.Wait(ctx); err != nil && ctx.Err() != nil {
				return
			}
		}
		if err := s.model.Unload(); err != nil {
			log.Printf("Session: unload failed: %v", err)
		}
	})
}

// Close makes later Start calls no-ops. A recording in progress is left to
// the caller to Stop.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) fireState(from, to State) {
	s.mu.Lock()
	listeners := slices.Clone(s.onState)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(from, to)
	}
}

func (s *Session) jobListeners() []func(transcriber.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.onJob)
}
