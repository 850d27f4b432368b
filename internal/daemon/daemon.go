package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/whisperclip/whisperclip/internal/audio"
	"github.com/whisperclip/whisperclip/internal/bus"
	"github.com/whisperclip/whisperclip/internal/config"
	"github.com/whisperclip/whisperclip/internal/hotkey"
	"github.com/whisperclip/whisperclip/internal/injection"
	"github.com/whisperclip/whisperclip/internal/metrics"
	"github.com/whisperclip/whisperclip/internal/model"
	"github.com/whisperclip/whisperclip/internal/notify"
	"github.com/whisperclip/whisperclip/internal/pipeline"
	"github.com/whisperclip/whisperclip/internal/recording"
	"github.com/whisperclip/whisperclip/internal/recording/portaudio"
	"github.com/whisperclip/whisperclip/internal/shortcut"
	"github.com/whisperclip/whisperclip/internal/transcriber"
	"github.com/whisperclip/whisperclip/internal/tray"
)

// Deps are the collaborators that touch hardware or the desktop.
type Deps struct {
	Source   recording.Source
	Backend  model.Backend
	Sink     transcriber.Sink
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
}

type Daemon struct {
	config    *config.Config
	outputDir string
	notifier  notify.Notifier
	metrics   *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	manager    *model.Manager
	queue      *transcriber.Queue
	worker     *transcriber.Worker
	workerTask *pipeline.Task
	tasks      *pipeline.Tasks
	session    *pipeline.Session
	tray       *tray.App
}

// New builds a daemon with the real capture, model, clipboard and
// notification backends selected by c.
func New(c *config.Config) (*Daemon, error) {
	deps, err := buildDeps(c)
	if err != nil {
		return nil, err
	}
	return NewWithDeps(c, deps)
}

func buildDeps(c *config.Config) (Deps, error) {
	var deps Deps

	switch c.Recording.Source {
	case "pipewire":
		deps.Source = recording.NewPipeWire(c.ToRecordingConfig())
	default:
		deps.Source = portaudio.New(c.ToRecordingConfig())
	}

	backend, err := transcriber.NewBackend(c.ToTranscriberConfig())
	if err != nil {
		return Deps{}, fmt.Errorf("failed to create model backend: %w", err)
	}
	deps.Backend = backend

	if c.Injection.Enabled {
		injector, err := injection.NewInjector(c.ToInjectionConfig())
		if err != nil {
			return Deps{}, fmt.Errorf("failed to create injector: %w", err)
		}
		deps.Sink = injector
	}

	notifier, err := notify.New(c.Notifications.Type, c.Notifications.SoundFile)
	if err != nil {
		return Deps{}, err
	}
	deps.Notifier = notifier
	deps.Metrics = metrics.New()
	return deps, nil
}

// NewWithDeps wires the pipeline around the given collaborators.
func NewWithDeps(c *config.Config, deps Deps) (*Daemon, error) {
	if deps.Source == nil || deps.Backend == nil {
		return nil, errors.New("daemon needs an audio source and a model backend")
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	outputDir, err := c.OutputDir()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		config:    c,
		outputDir: outputDir,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		ctx:       ctx,
		cancel:    cancel,
		tasks:     pipeline.NewTasks(),
		queue:     transcriber.NewQueue(),
	}

	d.manager = model.NewManager(deps.Backend, d.metrics)
	d.worker = transcriber.NewWorker(c.ToWorkerConfig(), d.queue, d.manager, deps.Sink, d.notifier, d.metrics)
	d.worker.OnResult = d.onResult
	d.session = pipeline.NewSession(pipeline.SessionConfig{
		OutputDir:  outputDir,
		SampleRate: c.Recording.SampleRate,
	}, deps.Source, d.manager, d.queue, d.tasks, d.metrics)

	d.session.OnStateChange(d.onStateChange)
	d.session.OnCaptureError(d.onCaptureError)
	return d, nil
}

func (d *Daemon) Session() *pipeline.Session { return d.session }

func (d *Daemon) Manager() *model.Manager { return d.manager }

// Status is the value reported over the control socket.
func (d *Daemon) Status() string {
	if d.session.State() == pipeline.Idle && d.session.Degraded() {
		return "degraded"
	}
	return d.session.State().String()
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down gracefully", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	// Close the listener when context is done
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	d.start()
	defer d.shutdown()

	log.Printf("Daemon started, listening on socket")

	if d.tray == nil {
		return d.serve(ln)
	}

	// The tray event loop keeps the calling goroutine, which main has
	// locked to the main OS thread.
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.serve(ln)
		d.tray.Quit()
	}()
	d.tray.Run()
	d.cancel()
	return <-errCh
}

func (d *Daemon) serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				log.Printf("Shutdown requested")
				return nil
			}
			log.Printf("Accept error: %v", err)
			d.cancel()
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

// Quit asks a running daemon to shut down.
func (d *Daemon) Quit() {
	d.cancel()
}

func (d *Daemon) start() {
	if n, err := audio.SweepArtifacts(d.outputDir); err != nil {
		log.Printf("Daemon: sweep of %s failed: %v", d.outputDir, err)
	} else if n > 0 {
		log.Printf("Daemon: removed %d clips left by a previous run", n)
	}

	d.workerTask = d.tasks.Go("worker", d.worker.Run)

	if addr := d.config.Metrics.Listen; addr != "" {
		d.tasks.Go("metrics", func(ctx context.Context) {
			if err := d.metrics.Serve(ctx, addr); err != nil {
				log.Printf("Daemon: metrics server failed: %v", err)
			}
		})
	}

	var label string
	if d.config.Hotkey.Enabled {
		label = d.startHotkey()
	}

	if d.config.Tray.Enabled {
		d.tray = tray.New(label, tray.Callbacks{
			OnToggle: d.toggle,
			OnQuit:   d.cancel,
		})
	}
}

// startHotkey registers the global shortcut and returns its label, or "" if
// the shortcut is unavailable.
func (d *Daemon) startHotkey() string {
	sc, err := shortcut.Parse(d.config.Hotkey.Shortcut)
	if err != nil {
		log.Printf("Daemon: invalid hotkey %q: %v", d.config.Hotkey.Shortcut, err)
		return ""
	}
	listener, err := hotkey.Register(sc)
	if err != nil {
		log.Printf("Daemon: hotkey unavailable, use the tray or `whisperclip toggle`: %v", err)
		return ""
	}
	d.tasks.Go("hotkey", func(ctx context.Context) {
		listener.Run(ctx, d.toggle)
	})
	return sc.Label()
}

func (d *Daemon) shutdown() {
	c := pipeline.NewCoordinator(pipeline.CoordinatorConfig{
		OutputDir:   d.outputDir,
		TaskTimeout: d.config.Transcription.TaskTimeout,
	}, d.session, d.workerTask, d.tasks, d.manager, d.queue)

	if err := c.Shutdown(); err != nil {
		log.Printf("Daemon: shutdown finished with errors: %v", err)
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("Client read error: %v", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	switch cmd {
	case bus.CmdToggle:
		d.toggle()
		fmt.Fprint(c, "OK toggled\n")
	case bus.CmdStatus:
		fmt.Fprintf(c, "STATUS status=%s queue=%d\n", d.Status(), d.queue.Len())
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		log.Printf("Unknown command: %c", cmd)
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

func (d *Daemon) toggle() {
	if !d.session.Toggle() {
		log.Printf("Daemon: toggle ignored in state %s", d.session.State())
	}
}

func (d *Daemon) onStateChange(from, to pipeline.State) {
	on := to == pipeline.Recording
	go d.notifier.RecordingChanged(on)

	if d.tray == nil {
		return
	}
	switch {
	case on:
		d.tray.SetState(tray.Recording)
	case d.session.Degraded():
		d.tray.SetState(tray.Degraded)
	default:
		d.tray.SetState(tray.Idle)
	}
}

func (d *Daemon) onCaptureError(err error) {
	go d.notifier.Error(fmt.Sprintf("Recording failed: %v", err))
	if d.tray != nil {
		d.tray.SetState(tray.Degraded)
	}
}

func (d *Daemon) onResult(r transcriber.Result) {
	if r.Err != nil && d.ctx.Err() == nil {
		go d.notifier.Error(r.Err.Error())
	}
}
