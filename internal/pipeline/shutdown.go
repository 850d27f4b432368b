package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/whisperclip/whisperclip/internal/audio"
	"github.com/whisperclip/whisperclip/internal/model"
	"github.com/whisperclip/whisperclip/internal/transcriber"
)

const DefaultTaskTimeout = 5 * time.Second

// Unloader releases the model.
type Unloader interface {
	Pending() *model.Signal
	UnloadContext(ctx context.Context) error
}

// Drainer gives up the jobs nobody will process.
type Drainer interface {
	Close()
	Drain() []transcriber.Job
}

type CoordinatorConfig struct {
	// OutputDir is swept for leftover clips at the end of shutdown.
	OutputDir string
	// TaskTimeout bounds each wait. Zero means DefaultTaskTimeout.
	TaskTimeout time.Duration
}

// Coordinator tears the pipeline down in a fixed order. Every step is best
// effort: a step that fails or times out is logged and the next one runs.
type Coordinator struct {
	config  CoordinatorConfig
	session *Session
	worker  *Task
	tasks   *Tasks
	model   Unloader
	queue   Drainer

	once sync.Once
	err  error
}

func NewCoordinator(config CoordinatorConfig, session *Session, worker *Task, tasks *Tasks, m Unloader, queue Drainer) *Coordinator {
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = DefaultTaskTimeout
	}
	return &Coordinator{
		config:  config,
		session: session,
		worker:  worker,
		tasks:   tasks,
		model:   m,
		queue:   queue,
	}
}

// Shutdown runs the teardown once. Later calls return the first result.
func (c *Coordinator) Shutdown() error {
	c.once.Do(func() {
		c.err = c.shutdown()
	})
	return c.err
}

func (c *Coordinator) shutdown() error {
	log.Printf("Shutdown: starting")
	var errs []error

	// 1. flush the clip being recorded
	if c.session != nil && c.session.State() == Recording {
		log.Printf("Shutdown: stopping active recording")
		c.session.Stop()
	}

	// 2. refuse new recordings and ask the worker to finish
	if c.session != nil {
		c.session.Close()
	}
	if c.worker != nil {
		c.worker.Stop()
	}

	// 3. await background work
	var pending []*Task
	if c.worker != nil {
		pending = append(pending, c.worker)
	}
	if c.tasks != nil {
		for _, t := range c.tasks.Running() {
			if t != c.worker {
				pending = append(pending, t)
			}
		}
	}
	for _, t := range pending {
		t.Stop()
		if !t.Wait(c.config.TaskTimeout) {
			log.Printf("Shutdown: warning: task %s did not finish within %v", t.Name(), c.config.TaskTimeout)
			errs = append(errs, fmt.Errorf("task %s timed out", t.Name()))
		}
	}
	if err := c.awaitLoad(); err != nil {
		errs = append(errs, err)
	}

	// 4. release the model whatever state it is in
	if err := c.unload(); err != nil {
		errs = append(errs, err)
	}

	// 5. drop queued clips
	if c.queue != nil {
		c.queue.Close()
		for _, job := range c.queue.Drain() {
			if err := os.Remove(job.Path); err != nil && !os.IsNotExist(err) {
				log.Printf("Shutdown: failed to remove %s: %v", job.Path, err)
				errs = append(errs, err)
			}
		}
	}

	if c.config.OutputDir != "" {
		n, err := audio.SweepArtifacts(c.config.OutputDir)
		if err != nil {
			log.Printf("Shutdown: sweep of %s failed: %v", c.config.OutputDir, err)
			errs = append(errs, err)
		}
		if n > 0 {
			log.Printf("Shutdown: removed %d leftover clips", n)
		}
	}

	log.Printf("Shutdown: complete")
	return errors.Join(errs...)
}

// awaitLoad waits for a model load still in flight.
func (c *Coordinator) awaitLoad() error {
	if c.model == nil {
		return nil
	}
	s := c.model.Pending()
	if s == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.config.TaskTimeout)
	defer cancel()
	if err := s.Wait(ctx); err != nil && !s.Ready() {
		log.Printf("Shutdown: warning: task load did not finish within %v", c.config.TaskTimeout)
		return errors.New("task load timed out")
	}
	return nil
}

func (c *Coordinator) unload() error {
	if c.model == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.config.TaskTimeout)
	defer cancel()
	err := c.model.UnloadContext(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("Shutdown: warning: unload did not finish within %v", c.config.TaskTimeout)
		return fmt.Errorf("unload model timed out: %w", err)
	default:
		log.Printf("Shutdown: unload failed: %v", err)
		return fmt.Errorf("unload model: %w", err)
	}
}
