package config

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	appDir := filepath.Join(configDir, "whisperclip")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(appDir, "config.toml"), nil
}

// Load reads the user's config file, creating it with defaults first when
// it does not exist.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("Config: no config file found at %s, creating with defaults", configPath)
		if err := SaveDefaultConfigTo(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	log.Printf("Config: loading configuration from %s", configPath)
	return decodeFile(configPath)
}

// decodeFile reads configPath over the defaults, so keys missing from the
// file keep their default values.
func decodeFile(configPath string) (*Config, error) {
	config := DefaultConfig()
	meta, err := toml.DecodeFile(configPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	for _, key := range meta.Undecoded() {
		log.Printf("Config: ignoring unknown key %s", key)
	}

	config.applyThreadsDefault()

	log.Printf("Config: configuration loaded successfully")
	return config, nil
}

// applyThreadsDefault leaves one core free for capture and the UI.
func (c *Config) applyThreadsDefault() {
	if c.Model.Threads == 0 {
		threads := runtime.NumCPU() - 1
		if threads < 1 {
			threads = 1
		}
		c.Model.Threads = threads
	}
}

func SaveDefaultConfig() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveDefaultConfigTo(configPath)
}

func SaveDefaultConfigTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}
	return nil
}

// Save replaces the file at configPath with c. Comments in the existing file
// are not preserved.
func Save(configPath string, c *Config) error {
	var buf bytes.Buffer
	buf.WriteString("# whisperclip configuration\n# Changes take effect after restarting the daemon.\n\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp := configPath + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, configPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

const defaultConfigContent = `# whisperclip configuration
# This file is automatically generated with defaults.
# Changes take effect after restarting the daemon.

# Microphone capture
[recording]
  sample_rate = 44100          # Capture rate in Hz
  channels = 1                 # Only mono is supported
  frames_per_buffer = 1024     # Samples delivered per capture callback
  source = "portaudio"         # "portaudio" or "pipewire" (pw-record)
  device = ""                  # Input device name (empty = system default, see 'whisperclip devices')
  output_dir = ""              # Where clips are written (empty = <cache dir>/whisperclip/output)

# Speech model
[model]
  backend = "whispercpp"       # "whispercpp" (in process), "whispercli" (subprocess) or "openai" (HTTP API)
  id = "medium.en"             # Model id, see 'whisperclip model list'
  path = ""                    # Explicit model file, overrides id
  language = ""                # Language code (empty = auto-detect)
  threads = 0                  # CPU threads (0 = NumCPU-1)
  api_key = ""                 # openai backend only (or set OPENAI_API_KEY)
  base_url = ""                # openai backend only, for compatible servers

[transcription]
  delete_after_transcription = true  # Remove each clip once it has been transcribed
  task_timeout = "5s"                # Bound on each wait during shutdown

# Where transcripts go
[injection]
  enabled = true                     # Copy transcripts to the clipboard
  backends = ["clipboard", "wl-copy"] # Tried in order until one succeeds
  timeout = "3s"

[notifications]
  notify_on_save = true        # Notify after a transcript was copied
  type = "sound"               # "sound", "desktop", "log" or "none"
  sound_file = ""              # Sound played by type = "sound" (empty = system beep)

[hotkey]
  enabled = true
  shortcut = "alt+shift+r"     # Toggles recording

[tray]
  enabled = true

[metrics]
  listen = ""                  # Prometheus endpoint address, e.g. "127.0.0.1:9464" (empty = off)

[logging]
  file = ""                    # Also write logs to this file, rotated
  max_size_mb = 10
  max_backups = 3
  max_age_days = 28
`
