package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/whisperclip/whisperclip/internal/config"
	"github.com/whisperclip/whisperclip/internal/language"
	"github.com/whisperclip/whisperclip/internal/models/whisper"
	"github.com/whisperclip/whisperclip/internal/shortcut"
)

var backendOptions = []huh.Option[string]{
	huh.NewOption("whisper.cpp (in-process, local)", "whispercpp"),
	huh.NewOption("whisper-cli (subprocess, local)", "whispercli"),
	huh.NewOption("OpenAI-compatible API", "openai"),
}

// modelOptions lists the registry models usable with language, marking the
// ones already downloaded.
func modelOptions(lang string, installed func(string) bool) []huh.Option[string] {
	var options []huh.Option[string]
	for _, m := range whisper.ListModels() {
		if !language.SupportedByModel(lang, !m.Multilingual) {
			continue
		}
		label := fmt.Sprintf("%s - %s (%s)", m.ID, m.Name, m.Size())
		if installed(m.ID) {
			label = "[x] " + label
		} else {
			label = "[ ] " + label
		}
		options = append(options, huh.NewOption(label, m.ID))
	}
	return options
}

func languageOptions(current string) []huh.Option[string] {
	autoLabel := "Auto-detect"
	if current == "" {
		autoLabel += " (current)"
	}
	options := []huh.Option[string]{huh.NewOption(autoLabel, "")}
	for _, lang := range language.List() {
		label := lang.Label()
		if lang.Code == current {
			label += " (current)"
		}
		options = append(options, huh.NewOption(label, lang.Code))
	}
	return options
}

var notificationOptions = []huh.Option[string]{
	huh.NewOption("Play a sound", "sound"),
	huh.NewOption("Desktop notification", "desktop"),
	huh.NewOption("Log only", "log"),
	huh.NewOption("None", "none"),
}

var sourceOptions = []huh.Option[string]{
	huh.NewOption("PortAudio (default input device)", "portaudio"),
	huh.NewOption("PipeWire (pw-record)", "pipewire"),
}

func validateShortcut(s string) error {
	_, err := shortcut.Parse(s)
	return err
}

func validateSoundFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("sound file not found: %s", path)
	}
	return nil
}

func modelLabel(c *config.Config) string {
	if c.Model.Backend == "openai" {
		return fmt.Sprintf("Model (openai, %s)", orDefault(c.Model.ID, "whisper-1"))
	}
	return fmt.Sprintf("Model (%s, %s)", c.Model.Backend, c.Model.ID)
}

func languageLabel(c *config.Config) string {
	return fmt.Sprintf("Language (%s)", language.FromCode(c.Model.Language).Label())
}

func hotkeyLabel(c *config.Config) string {
	if !c.Hotkey.Enabled {
		return "Hotkey (disabled)"
	}
	sc, err := shortcut.Parse(c.Hotkey.Shortcut)
	if err != nil {
		return "Hotkey (invalid)"
	}
	return fmt.Sprintf("Hotkey (%s)", sc.Label())
}

func outputLabel(c *config.Config) string {
	if !c.Injection.Enabled {
		return "Output (clipboard off)"
	}
	return "Output (clipboard)"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
