package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	if config.Recording.SampleRate != 44100 || config.Recording.Channels != 1 {
		t.Errorf("default capture = %d Hz x %d, want 44100 x 1", config.Recording.SampleRate, config.Recording.Channels)
	}
	if config.Model.ID != "medium.en" {
		t.Errorf("default model id = %s, want medium.en", config.Model.ID)
	}
	if config.Hotkey.Shortcut != "alt+shift+r" {
		t.Errorf("default shortcut = %s, want alt+shift+r", config.Hotkey.Shortcut)
	}
	if !config.Notifications.NotifyOnSave || !config.Transcription.DeleteAfterTranscription {
		t.Error("notify_on_save and delete_after_transcription should default to true")
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero sample rate", func(c *Config) { c.Recording.SampleRate = 0 }, "recording.sample_rate"},
		{"stereo", func(c *Config) { c.Recording.Channels = 2 }, "recording.channels"},
		{"zero frames", func(c *Config) { c.Recording.FramesPerBuffer = 0 }, "recording.frames_per_buffer"},
		{"unknown source", func(c *Config) { c.Recording.Source = "alsa" }, "recording.source"},
		{"pipewire source", func(c *Config) { c.Recording.Source = "pipewire" }, ""},
		{"unknown backend", func(c *Config) { c.Model.Backend = "vosk" }, "model.backend"},
		{"unknown model id", func(c *Config) { c.Model.ID = "gigantic" }, "model.id"},
		{"explicit model path", func(c *Config) { c.Model.ID = "gigantic"; c.Model.Path = "/tmp/m.bin" }, ""},
		{"invalid language", func(c *Config) { c.Model.Language = "klingon" }, "model.language"},
		{"german on english model", func(c *Config) { c.Model.Language = "de" }, "English-only"},
		{"german on multilingual model", func(c *Config) { c.Model.ID = "medium"; c.Model.Language = "de" }, ""},
		{"negative threads", func(c *Config) { c.Model.Threads = -1 }, "model.threads"},
		{"openai without key", func(c *Config) { c.Model.Backend = "openai" }, "API key required"},
		{"openai with key", func(c *Config) { c.Model.Backend = "openai"; c.Model.APIKey = "sk-test" }, ""},
		{"zero task timeout", func(c *Config) { c.Transcription.TaskTimeout = 0 }, "transcription.task_timeout"},
		{"unknown injection backend", func(c *Config) { c.Injection.Backends = []string{"ydotool"} }, "injection.backends"},
		{"empty injection backends", func(c *Config) { c.Injection.Backends = nil }, "injection.backends"},
		{"injection disabled ignores backends", func(c *Config) { c.Injection.Enabled = false; c.Injection.Backends = nil }, ""},
		{"zero injection timeout", func(c *Config) { c.Injection.Timeout = 0 }, "injection.timeout"},
		{"unknown notification type", func(c *Config) { c.Notifications.Type = "pager" }, "notifications.type"},
		{"missing sound file", func(c *Config) { c.Notifications.SoundFile = "/nonexistent/ding.wav" }, "notifications.sound_file"},
		{"bad shortcut", func(c *Config) { c.Hotkey.Shortcut = "r" }, "hotkey.shortcut"},
		{"bad shortcut but hotkey disabled", func(c *Config) { c.Hotkey.Enabled = false; c.Hotkey.Shortcut = "r" }, ""},
		{"log file without size", func(c *Config) { c.Logging.File = "/tmp/w.log"; c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateOpenAIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	config := DefaultConfig()
	config.Model.Backend = "openai"
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if got := config.ToTranscriberConfig().APIKey; got != "sk-env" {
		t.Errorf("APIKey = %q, want key from environment", got)
	}
}

func TestLoadFromCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whisperclip", "config.toml")

	config, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file should have been created: %v", err)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("generated config should be valid: %v", err)
	}

	want := DefaultConfig()
	want.applyThreadsDefault()
	if config.Model != want.Model {
		t.Errorf("model section = %+v, want %+v", config.Model, want.Model)
	}
	if config.Recording != want.Recording {
		t.Errorf("recording section = %+v, want %+v", config.Recording, want.Recording)
	}
	if config.Transcription != want.Transcription {
		t.Errorf("transcription section = %+v, want %+v", config.Transcription, want.Transcription)
	}
}

func TestLoadFromPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[model]
  id = "small"
  language = "it"
  threads = 2

[injection]
  backends = ["wl-copy"]
  timeout = "750ms"

[hotkey]
  shortcut = "ctrl+alt+space"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if config.Model.ID != "small" || config.Model.Language != "it" || config.Model.Threads != 2 {
		t.Errorf("model section = %+v", config.Model)
	}
	if config.Model.Backend != "whispercpp" {
		t.Errorf("missing keys should keep defaults, backend = %q", config.Model.Backend)
	}
	if len(config.Injection.Backends) != 1 || config.Injection.Backends[0] != "wl-copy" {
		t.Errorf("backends = %v", config.Injection.Backends)
	}
	if config.Injection.Timeout != 750*time.Millisecond {
		t.Errorf("timeout = %v, want 750ms", config.Injection.Timeout)
	}
	if config.Recording.SampleRate != 44100 {
		t.Errorf("sample rate = %d, want default", config.Recording.SampleRate)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFromInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[model\nid = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should fail on malformed TOML")
	}
}

func TestApplyThreadsDefault(t *testing.T) {
	config := DefaultConfig()
	config.applyThreadsDefault()

	want := runtime.NumCPU() - 1
	if want < 1 {
		want = 1
	}
	if config.Model.Threads != want {
		t.Errorf("threads = %d, want %d", config.Model.Threads, want)
	}

	config.Model.Threads = 3
	config.applyThreadsDefault()
	if config.Model.Threads != 3 {
		t.Error("explicit threads must not be overridden")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	config := DefaultConfig()
	config.Model.ID = "base"
	config.Model.Language = "fr"
	config.Model.Threads = 4
	config.Injection.Timeout = 2 * time.Second
	config.Metrics.Listen = "127.0.0.1:9464"

	if err := Save(path, config); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Model != config.Model {
		t.Errorf("model = %+v, want %+v", loaded.Model, config.Model)
	}
	if loaded.Injection.Timeout != config.Injection.Timeout {
		t.Errorf("timeout = %v, want %v", loaded.Injection.Timeout, config.Injection.Timeout)
	}
	if loaded.Metrics.Listen != config.Metrics.Listen {
		t.Errorf("metrics listen = %q", loaded.Metrics.Listen)
	}
}

func TestConversions(t *testing.T) {
	config := DefaultConfig()
	config.Recording.Device = "USB Mic"
	config.Injection.Enabled = false
	config.Notifications.NotifyOnSave = false

	rec := config.ToRecordingConfig()
	if rec.SampleRate != 44100 || rec.Channels != 1 || rec.FramesPerBuffer != 1024 || rec.Device != "USB Mic" {
		t.Errorf("recording config = %+v", rec)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("converted recording config invalid: %v", err)
	}

	worker := config.ToWorkerConfig()
	if worker.Deliver || worker.NotifyOnSave || !worker.DeleteAfterTranscription {
		t.Errorf("worker config = %+v", worker)
	}
	if worker.DeliverTimeout != config.Injection.Timeout {
		t.Errorf("deliver timeout = %v", worker.DeliverTimeout)
	}

	tc := config.ToTranscriberConfig()
	if tc.Backend != "whispercpp" || tc.ModelID != "medium.en" {
		t.Errorf("transcriber config = %+v", tc)
	}

	inj := config.ToInjectionConfig()
	if len(inj.Backends) != 2 || inj.Timeout != 3*time.Second {
		t.Errorf("injection config = %+v", inj)
	}
}

func TestOutputDir(t *testing.T) {
	config := DefaultConfig()
	dir, err := config.OutputDir()
	if err != nil {
		t.Fatalf("OutputDir() error = %v", err)
	}
	if filepath.Base(dir) != "output" || filepath.Base(filepath.Dir(dir)) != "whisperclip" {
		t.Errorf("default output dir = %s", dir)
	}

	config.Recording.OutputDir = "/tmp/clips"
	if dir, _ := config.OutputDir(); dir != "/tmp/clips" {
		t.Errorf("override output dir = %s", dir)
	}
}

func TestManagerReportsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	m, err := NewManagerFrom(path)
	if err != nil {
		t.Fatalf("NewManagerFrom() error = %v", err)
	}

	var mu sync.Mutex
	var changed []*Config
	var sections []string
	m.OnChange = func(c *Config, s []string) {
		mu.Lock()
		defer mu.Unlock()
		changed = append(changed, c)
		sections = s
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.StartWatching(ctx); err != nil {
		t.Fatalf("StartWatching() error = %v", err)
	}
	defer m.Stop()

	edited := DefaultConfig()
	edited.Model.ID = "tiny.en"
	if err := Save(path, edited); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(changed)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("change was not reported")
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	last := changed[len(changed)-1]
	mu.Unlock()
	if last.Model.ID != "tiny.en" {
		t.Errorf("reported model id = %s, want tiny.en", last.Model.ID)
	}
	mu.Lock()
	if !slices.Contains(sections, "model") {
		t.Errorf("changed sections = %v, want model", sections)
	}
	mu.Unlock()
	if m.GetConfig().Model.ID != "medium.en" {
		t.Error("running configuration must not change until restart")
	}
}

func TestChangedSections(t *testing.T) {
	old := DefaultConfig()
	next := DefaultConfig()
	if got := changedSections(old, next); len(got) != 0 {
		t.Errorf("identical configs reported %v", got)
	}

	next.Hotkey.Shortcut = "ctrl+space"
	next.Injection.Backends = []string{"clipboard"}
	got := changedSections(old, next)
	if !slices.Equal(got, []string{"injection", "hotkey"}) {
		t.Errorf("changedSections() = %v, want [injection hotkey]", got)
	}
}

func TestNewManagerRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[recording]\n  channels = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManagerFrom(path); err == nil || !strings.Contains(err.Error(), "recording.channels") {
		t.Errorf("NewManagerFrom() error = %v, want channels validation error", err)
	}
}

func TestGetConfigReturnsCopy(t *testing.T) {
	m := &Manager{config: DefaultConfig()}
	c := m.GetConfig()
	c.Model.ID = "tiny"
	c.Injection.Backends[0] = "changed"

	if m.GetConfig().Model.ID != "medium.en" || m.GetConfig().Injection.Backends[0] != "clipboard" {
		t.Error("GetConfig must return an independent copy")
	}
}
