package transcriber

import (
	"context"
	"errors"
	"log"
	"os"
	"time"
)

type WorkerConfig struct {
	// Deliver sends transcripts to the sink. When false the text is only logged.
	Deliver bool
	// DeliverTimeout bounds a single sink write.
	DeliverTimeout time.Duration
	// NotifyOnSave plays the saved notification after a successful delivery.
	NotifyOnSave bool
	// DeleteAfterTranscription removes the clip once the job is finished,
	// whatever the outcome.
	DeleteAfterTranscription bool
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Deliver:                  true,
		DeliverTimeout:           3 * time.Second,
		NotifyOnSave:             true,
		DeleteAfterTranscription: true,
	}
}

// Observer receives per-job events, typically for metrics.
type Observer interface {
	JobDequeued(depth int)
	TranscriptionDone(d time.Duration, err error)
	DeliveryFailed()
	FileRemoved()
}

// Result describes a finished job. Reported to OnResult when set.
type Result struct {
	Job  Job
	Text string
	Err  error
}

// Worker is the only consumer of the queue and the only caller of
// Model.Transcribe.
type Worker struct {
	config   WorkerConfig
	queue    *Queue
	model    Model
	sink     Sink
	notifier Notifier
	observer Observer

	// OnResult, when set, is called after each job completes.
	OnResult func(Result)
}

func NewWorker(config WorkerConfig, queue *Queue, m Model, sink Sink, notifier Notifier, observer Observer) *Worker {
	return &Worker{
		config:   config,
		queue:    queue,
		model:    m,
		sink:     sink,
		notifier: notifier,
		observer: observer,
	}
}

// Run processes jobs until ctx is cancelled or the queue is closed. A job that
// is already being transcribed when ctx is cancelled runs to completion.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("Worker: started")
	defer log.Printf("Worker: stopped")

	for {
		job, err := w.queue.Pop(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, ErrQueueClosed) {
				log.Printf("Worker: queue error: %v", err)
			}
			return
		}
		if w.observer != nil {
			w.observer.JobDequeued(w.queue.Len())
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	result := Result{Job: job}
	defer func() {
		w.finish(job)
		if w.OnResult != nil {
			w.OnResult(result)
		}
	}()

	log.Printf("Worker: processing job %s (%s)", job.ID, job.Path)

	if job.Ready != nil {
		if err := job.Ready.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				log.Printf("Worker: abandoning job %s before transcription: %v", job.ID, ctx.Err())
				result.Err = ctx.Err()
				return
			}
			log.Printf("Worker: background model load failed, retrying on demand: %v", err)
		}
	}

	start := time.Now()
	text, err := w.model.Transcribe(context.WithoutCancel(ctx), job.Path)
	elapsed := time.Since(start)
	if w.observer != nil {
		w.observer.TranscriptionDone(elapsed, err)
	}
	if err != nil {
		err = NewTranscriptionError(job.Path, err)
		log.Printf("Worker: %v", err)
		result.Err = err
		return
	}
	result.Text = text
	log.Printf("Worker: transcribed job %s in %v: %q", job.ID, elapsed, text)

	if !w.config.Deliver || w.sink == nil {
		return
	}

	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.deliverTimeout())
	err = w.sink.Deliver(deliverCtx, text)
	cancel()
	if err != nil {
		log.Printf("Worker: failed to deliver transcript: %v", err)
		if w.observer != nil {
			w.observer.DeliveryFailed()
		}
		result.Err = err
		return
	}

	if w.config.NotifyOnSave && w.notifier != nil {
		w.notifier.Saved()
	}
}

// finish runs after every job regardless of outcome.
func (w *Worker) finish(job Job) {
	if err := w.model.Unload(); err != nil {
		log.Printf("Worker: unload after job %s failed: %v", job.ID, err)
	}

	if !w.config.DeleteAfterTranscription {
		return
	}
	if err := os.Remove(job.Path); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Worker: failed to remove %s: %v", job.Path, err)
		}
		return
	}
	if w.observer != nil {
		w.observer.FileRemoved()
	}
}

func (w *Worker) deliverTimeout() time.Duration {
	if w.config.DeliverTimeout <= 0 {
		return DefaultWorkerConfig().DeliverTimeout
	}
	return w.config.DeliverTimeout
}
