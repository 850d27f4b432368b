package config

import (
	"os"
	"path/filepath"

	"github.com/whisperclip/whisperclip/internal/injection"
	"github.com/whisperclip/whisperclip/internal/logging"
	"github.com/whisperclip/whisperclip/internal/recording"
	"github.com/whisperclip/whisperclip/internal/transcriber"
)

func (c *Config) ToRecordingConfig() recording.Config {
	return recording.Config{
		SampleRate:      c.Recording.SampleRate,
		Channels:        c.Recording.Channels,
		FramesPerBuffer: c.Recording.FramesPerBuffer,
		Device:          c.Recording.Device,
	}
}

func (c *Config) ToTranscriberConfig() transcriber.Config {
	return transcriber.Config{
		Backend:  c.Model.Backend,
		ModelID:  c.Model.ID,
		Path:     c.Model.Path,
		Language: c.Model.Language,
		Threads:  c.Model.Threads,
		APIKey:   c.resolveAPIKey(),
		BaseURL:  c.Model.BaseURL,
	}
}

func (c *Config) ToWorkerConfig() transcriber.WorkerConfig {
	return transcriber.WorkerConfig{
		Deliver:                  c.Injection.Enabled,
		DeliverTimeout:           c.Injection.Timeout,
		NotifyOnSave:             c.Notifications.NotifyOnSave,
		DeleteAfterTranscription: c.Transcription.DeleteAfterTranscription,
	}
}

func (c *Config) ToInjectionConfig() injection.Config {
	return injection.Config{
		Backends: c.Injection.Backends,
		Timeout:  c.Injection.Timeout,
	}
}

func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
	}
}

// OutputDir is where clips are written: recording.output_dir, or
// <user cache dir>/whisperclip/output.
func (c *Config) OutputDir() (string, error) {
	if c.Recording.OutputDir != "" {
		return c.Recording.OutputDir, nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "whisperclip", "output"), nil
}
