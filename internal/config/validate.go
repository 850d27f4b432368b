package config

import (
	"fmt"
	"os"

	"github.com/whisperclip/whisperclip/internal/language"
	"github.com/whisperclip/whisperclip/internal/models/whisper"
	"github.com/whisperclip/whisperclip/internal/shortcut"
)

func (c *Config) Validate() error {
	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.Channels != 1 {
		return fmt.Errorf("invalid recording.channels: %d (only mono capture is supported)", c.Recording.Channels)
	}
	if c.Recording.FramesPerBuffer <= 0 {
		return fmt.Errorf("invalid recording.frames_per_buffer: %d", c.Recording.FramesPerBuffer)
	}
	switch c.Recording.Source {
	case "portaudio", "pipewire":
	default:
		return fmt.Errorf("invalid recording.source: %q (must be portaudio or pipewire)", c.Recording.Source)
	}

	if err := c.validateModel(); err != nil {
		return err
	}

	if c.Transcription.TaskTimeout <= 0 {
		return fmt.Errorf("invalid transcription.task_timeout: %v", c.Transcription.TaskTimeout)
	}

	if c.Injection.Enabled {
		if len(c.Injection.Backends) == 0 {
			return fmt.Errorf("invalid injection.backends: empty")
		}
		validBackends := map[string]bool{"clipboard": true, "wl-copy": true}
		for _, b := range c.Injection.Backends {
			if !validBackends[b] {
				return fmt.Errorf("invalid injection.backends: %q (must be clipboard or wl-copy)", b)
			}
		}
		if c.Injection.Timeout <= 0 {
			return fmt.Errorf("invalid injection.timeout: %v", c.Injection.Timeout)
		}
	}

	validTypes := map[string]bool{"sound": true, "desktop": true, "log": true, "none": true}
	if !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be sound, desktop, log, or none)", c.Notifications.Type)
	}
	if c.Notifications.SoundFile != "" {
		if _, err := os.Stat(c.Notifications.SoundFile); err != nil {
			return fmt.Errorf("invalid notifications.sound_file: %w", err)
		}
	}

	if c.Hotkey.Enabled {
		if _, err := shortcut.Parse(c.Hotkey.Shortcut); err != nil {
			return fmt.Errorf("invalid hotkey.shortcut: %w", err)
		}
	}

	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		return fmt.Errorf("invalid logging.max_size_mb: %d", c.Logging.MaxSizeMB)
	}

	return nil
}

func (c *Config) validateModel() error {
	if !language.IsValidCode(c.Model.Language) {
		return fmt.Errorf("invalid model.language: %s (use empty string for auto-detect or ISO-639-1 codes like 'en', 'es', 'fr')", c.Model.Language)
	}
	if c.Model.Threads < 0 {
		return fmt.Errorf("invalid model.threads: %d", c.Model.Threads)
	}

	switch c.Model.Backend {
	case "whispercpp", "whispercli":
		if c.Model.Path != "" {
			return nil
		}
		info := whisper.GetModel(c.Model.ID)
		if info == nil {
			return fmt.Errorf("invalid model.id: %q (see 'whisperclip model list')", c.Model.ID)
		}
		if !language.SupportedByModel(c.Model.Language, !info.Multilingual) {
			return fmt.Errorf("invalid model.language: %s is not supported by English-only model %s", c.Model.Language, info.ID)
		}
	case "openai":
		if c.resolveAPIKey() == "" {
			return fmt.Errorf("OpenAI API key required: not found in config (model.api_key) or environment variable (OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("invalid model.backend: %q (must be whispercpp, whispercli, or openai)", c.Model.Backend)
	}
	return nil
}

func (c *Config) resolveAPIKey() string {
	if c.Model.APIKey != "" {
		return c.Model.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}
