package config

import "time"

type Config struct {
	Recording     RecordingConfig     `toml:"recording"`
	Model         ModelConfig         `toml:"model"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Injection     InjectionConfig     `toml:"injection"`
	Notifications NotificationsConfig `toml:"notifications"`
	Hotkey        HotkeyConfig        `toml:"hotkey"`
	Tray          TrayConfig          `toml:"tray"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Logging       LoggingConfig       `toml:"logging"`
}

type RecordingConfig struct {
	SampleRate      int    `toml:"sample_rate"`
	Channels        int    `toml:"channels"`
	FramesPerBuffer int    `toml:"frames_per_buffer"`
	Source          string `toml:"source"` // "portaudio" or "pipewire"
	Device          string `toml:"device"` // empty = default input
	OutputDir       string `toml:"output_dir"`
}

type ModelConfig struct {
	Backend  string `toml:"backend"` // "whispercpp", "whispercli", "openai"
	ID       string `toml:"id"`
	Path     string `toml:"path"` // overrides the registry location of id
	Language string `toml:"language"`
	Threads  int    `toml:"threads"` // 0 = NumCPU-1
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type TranscriptionConfig struct {
	DeleteAfterTranscription bool          `toml:"delete_after_transcription"`
	TaskTimeout              time.Duration `toml:"task_timeout"`
}

type InjectionConfig struct {
	Enabled  bool          `toml:"enabled"`
	Backends []string      `toml:"backends"`
	Timeout  time.Duration `toml:"timeout"`
}

type NotificationsConfig struct {
	NotifyOnSave bool   `toml:"notify_on_save"`
	Type         string `toml:"type"` // "sound", "desktop", "log", "none"
	SoundFile    string `toml:"sound_file"`
}

type HotkeyConfig struct {
	Enabled  bool   `toml:"enabled"`
	Shortcut string `toml:"shortcut"`
}

type TrayConfig struct {
	Enabled bool `toml:"enabled"`
}

type MetricsConfig struct {
	Listen string `toml:"listen"` // empty disables the endpoint
}

type LoggingConfig struct {
	File       string `toml:"file"` // empty logs to stderr only
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}
