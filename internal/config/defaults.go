package config

import "time"

// DefaultConfig returns the configuration written on first start.
func DefaultConfig() *Config {
	return &Config{
		Recording: RecordingConfig{
			SampleRate:      44100,
			Channels:        1,
			FramesPerBuffer: 1024,
			Source:          "portaudio",
			Device:          "",
			OutputDir:       "",
		},
		Model: ModelConfig{
			Backend:  "whispercpp",
			ID:       "medium.en",
			Language: "",
			Threads:  0,
		},
		Transcription: TranscriptionConfig{
			DeleteAfterTranscription: true,
			TaskTimeout:              5 * time.Second,
		},
		Injection: InjectionConfig{
			Enabled:  true,
			Backends: []string{"clipboard", "wl-copy"},
			Timeout:  3 * time.Second,
		},
		Notifications: NotificationsConfig{
			NotifyOnSave: true,
			Type:         "sound",
		},
		Hotkey: HotkeyConfig{
			Enabled:  true,
			Shortcut: "alt+shift+r",
		},
		Tray: TrayConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
