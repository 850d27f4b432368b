package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RecordingsStarted   prometheus.Counter
	RecordingsEmpty     prometheus.Counter
	CaptureErrors       prometheus.Counter
	RecordedSeconds     prometheus.Histogram
	JobsEnqueued        prometheus.Counter
	QueueDepth          prometheus.Gauge
	TranscriptionOK     prometheus.Counter
	TranscriptionFailed prometheus.Counter
	TranscriptionTime   prometheus.Histogram
	DeliveryFailures    prometheus.Counter
	ModelLoads          *prometheus.CounterVec
	ModelLoadTime       prometheus.Histogram
	ModelUnloads        prometheus.Counter
	ModelResident       prometheus.Gauge
	FilesRemoved        prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RecordingsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "whisperclip_recordings_started_total",
			Help: "Total number of recordings started",
		}),
		RecordingsEmpty: f.NewCounter(prometheus.CounterOpts{
			Name: "whisperclip_recordings_empty_total",
			Help: "Recordings stopped before any audio arrived",
		}),
		CaptureErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "whisperclip_capture_errors_total",
			Help: "Audio capture failures",
		}),
		RecordedSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "whisperclip_recording_duration_seconds",
			Help:    "Length of captured clips",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		JobsEnqueued: f.NewCounter(prometheus.CounterOpts{
			Name: "whisperclip_jobs_enqueued_total",
			Help: "Transcription jobs pushed to the queue",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "whisperclip_queue_depth",
			Help: "Jobs waiting for the transcription worker",
		}),
		TranscriptionOK: f.NewCounter(prometheus.CounterOpts{
			Name: "whisperclip_transcriptions_succeeded_total",
			Help: "Jobs transcribed successfully",
		}),
		TranscriptionFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "whisperclip_transcriptions_failed_total",
			Help: "Jobs whose transcription failed",
		}),
		TranscriptionTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "whisperclip_transcription_duration_seconds",
			Help:    "Time spent running the model on one clip",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		DeliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "whisperclip_delivery_failures_total",
			Help: "Transcripts that could not be written to the sink",
		}),
		ModelLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "whisperclip_model_loads_total",
			Help: "Physical model loads by result",
		}, []string{"result"}),
		ModelLoadTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "whisperclip_model_load_duration_seconds",
			Help:    "Time taken to load the model",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		ModelUnloads: f.NewCounter(prometheus.CounterOpts{
			Name: "whisperclip_model_unloads_total",
			Help: "Model unloads",
		}),
		ModelResident: f.NewGauge(prometheus.GaugeOpts{
			Name: "whisperclip_model_loaded",
			Help: "1 while a model is held in memory",
		}),
		FilesRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "whisperclip_artifacts_removed_total",
			Help: "Temporary recordings deleted",
		}),
	}
}

// ModelLoaded implements model.Observer.
func (m *Metrics) ModelLoaded(d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ModelLoads.WithLabelValues("error").Inc()
		return
	}
	m.ModelLoads.WithLabelValues("ok").Inc()
	m.ModelLoadTime.Observe(d.Seconds())
	m.ModelResident.Set(1)
}

// ModelUnloaded implements model.Observer.
func (m *Metrics) ModelUnloaded() {
	if m == nil {
		return
	}
	m.ModelUnloads.Inc()
	m.ModelResident.Set(0)
}

func (m *Metrics) RecordingStarted() {
	if m == nil {
		return
	}
	m.RecordingsStarted.Inc()
}

func (m *Metrics) RecordingStopped(d time.Duration, samples int) {
	if m == nil {
		return
	}
	if samples == 0 {
		m.RecordingsEmpty.Inc()
		return
	}
	m.RecordedSeconds.Observe(d.Seconds())
}

func (m *Metrics) CaptureFailed() {
	if m == nil {
		return
	}
	m.CaptureErrors.Inc()
}

func (m *Metrics) JobEnqueued(depth int) {
	if m == nil {
		return
	}
	m.JobsEnqueued.Inc()
	m.QueueDepth.Set(float64(depth))
}

func (m *Metrics) JobDequeued(depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(depth))
}

func (m *Metrics) TranscriptionDone(d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.TranscriptionFailed.Inc()
		return
	}
	m.TranscriptionOK.Inc()
	m.TranscriptionTime.Observe(d.Seconds())
}

func (m *Metrics) DeliveryFailed() {
	if m == nil {
		return
	}
	m.DeliveryFailures.Inc()
}

func (m *Metrics) FileRemoved() {
	if m == nil {
		return
	}
	m.FilesRemoved.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Metrics: serving on http://%s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
