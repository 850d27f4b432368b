package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/muesli/termenv"
	"github.com/whisperclip/whisperclip/internal/config"
	"github.com/whisperclip/whisperclip/internal/language"
	"github.com/whisperclip/whisperclip/internal/models/whisper"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

type section string

const (
	sectionModel     section = "model"
	sectionLanguage  section = "language"
	sectionRecording section = "recording"
	sectionHotkey    section = "hotkey"
	sectionOutput    section = "output"
	sectionSave      section = "save"
	sectionDiscard   section = "discard"
)

// Run edits a copy of existing through a menu of forms until the user saves
// or discards.
func Run(existing *config.Config) (*ConfigureResult, error) {
	c := *existing
	c.Injection.Backends = append([]string(nil), existing.Injection.Backends...)

	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		s, err := selectSection(&c)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch s {
		case sectionSave:
			if err := c.Validate(); err != nil {
				fmt.Println(StyleError.Render("Invalid configuration: " + err.Error()))
				waitForEnter()
				continue
			}
			confirmed, err := showSummary(&c)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Config: &c}, nil
			}
		case sectionDiscard:
			return &ConfigureResult{Cancelled: true}, nil
		case sectionModel:
			editModel(&c)
		case sectionLanguage:
			editLanguage(&c)
		case sectionRecording:
			editRecording(&c)
		case sectionHotkey:
			editHotkey(&c)
		case sectionOutput:
			editOutput(&c)
		}
	}
}

func selectSection(c *config.Config) (section, error) {
	options := []huh.Option[section]{
		huh.NewOption(modelLabel(c), sectionModel),
		huh.NewOption(languageLabel(c), sectionLanguage),
		huh.NewOption("Recording", sectionRecording),
		huh.NewOption(hotkeyLabel(c), sectionHotkey),
		huh.NewOption(outputLabel(c), sectionOutput),
		huh.NewOption("Save & Exit", sectionSave),
		huh.NewOption("Discard & Exit", sectionDiscard),
	}

	var selected section
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[section]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

// edit* forms work on locals and only copy back when the form completes.

func editModel(c *config.Config) {
	backend := c.Model.Backend
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription backend").
				Options(backendOptions...).
				Value(&backend),
		),
	).WithTheme(getTheme())
	if form.Run() != nil {
		return
	}

	if backend == "openai" {
		id, apiKey, baseURL := c.Model.ID, c.Model.APIKey, c.Model.BaseURL
		if whisper.GetModel(id) != nil {
			id = ""
		}
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Model").
					Description("Leave empty for whisper-1").
					Value(&id),
				huh.NewInput().
					Title("API key").
					Description("Leave empty to use OPENAI_API_KEY").
					EchoMode(huh.EchoModePassword).
					Value(&apiKey),
				huh.NewInput().
					Title("Base URL").
					Description("Leave empty for api.openai.com").
					Value(&baseURL),
			),
		).WithTheme(getTheme())
		if form.Run() != nil {
			return
		}
		c.Model.Backend, c.Model.ID, c.Model.APIKey, c.Model.BaseURL = backend, id, apiKey, baseURL
		return
	}

	id := c.Model.ID
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Whisper model").
				Description("[x] downloaded • others need `whisperclip model download <id>`").
				Options(modelOptions(c.Model.Language, whisper.IsInstalled)...).
				Value(&id),
		),
	).WithTheme(getTheme())
	if form.Run() != nil {
		return
	}
	c.Model.Backend, c.Model.ID = backend, id
}

func editLanguage(c *config.Config) {
	lang := c.Model.Language
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language").
				Description("Language spoken in recordings").
				Options(languageOptions(lang)...).
				Filtering(true).
				Value(&lang),
		),
	).WithTheme(getTheme())
	if form.Run() != nil {
		return
	}

	if info := whisper.GetModel(c.Model.ID); info != nil && c.Model.Backend != "openai" &&
		!language.SupportedByModel(lang, !info.Multilingual) {
		fmt.Println(StyleWarning.Render(fmt.Sprintf("%s is English-only; pick a multilingual model before saving.", info.ID)))
		waitForEnter()
	}
	c.Model.Language = lang
}

func editRecording(c *config.Config) {
	source, device, outputDir := c.Recording.Source, c.Recording.Device, c.Recording.OutputDir
	deleteAfter := c.Transcription.DeleteAfterTranscription

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Audio source").
				Options(sourceOptions...).
				Value(&source),
			huh.NewInput().
				Title("Input device").
				Description("Name from `whisperclip devices`; empty for the default").
				Value(&device),
			huh.NewInput().
				Title("Output folder").
				Description("Where clips are written; empty for the cache folder").
				Value(&outputDir),
			huh.NewConfirm().
				Title("Delete clips after transcription?").
				Value(&deleteAfter),
		),
	).WithTheme(getTheme())
	if form.Run() != nil {
		return
	}
	c.Recording.Source, c.Recording.Device, c.Recording.OutputDir = source, device, outputDir
	c.Transcription.DeleteAfterTranscription = deleteAfter
}

func editHotkey(c *config.Config) {
	enabled, sc, tray := c.Hotkey.Enabled, c.Hotkey.Shortcut, c.Tray.Enabled

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable global hotkey?").
				Value(&enabled),
			huh.NewInput().
				Title("Shortcut").
				Description("e.g. alt+shift+r, ctrl+super+space").
				Validate(validateShortcut).
				Value(&sc),
			huh.NewConfirm().
				Title("Show tray icon?").
				Value(&tray),
		),
	).WithTheme(getTheme())
	if form.Run() != nil {
		return
	}
	c.Hotkey.Enabled, c.Hotkey.Shortcut, c.Tray.Enabled = enabled, sc, tray
}

func editOutput(c *config.Config) {
	enabled, notifyOnSave := c.Injection.Enabled, c.Notifications.NotifyOnSave
	kind, soundFile := c.Notifications.Type, c.Notifications.SoundFile

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Copy transcripts to the clipboard?").
				Value(&enabled),
			huh.NewConfirm().
				Title("Notify when a transcript is copied?").
				Value(&notifyOnSave),
			huh.NewSelect[string]().
				Title("Notification type").
				Options(notificationOptions...).
				Value(&kind),
			huh.NewInput().
				Title("Sound file").
				Description("Played on save; empty for a short beep").
				Validate(validateSoundFile).
				Value(&soundFile),
		),
	).WithTheme(getTheme())
	if form.Run() != nil {
		return
	}
	c.Injection.Enabled, c.Notifications.NotifyOnSave = enabled, notifyOnSave
	c.Notifications.Type, c.Notifications.SoundFile = kind, soundFile
}

func showSummary(c *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()
	for _, line := range summaryLines(c) {
		fmt.Println("  " + line)
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func summaryLines(c *config.Config) []string {
	row := func(label, value string) string {
		return StyleLabel.Render(label) + " " + value
	}

	lines := []string{
		row("Model:", fmt.Sprintf("%s (%s)", orDefault(c.Model.ID, "whisper-1"), c.Model.Backend)),
		row("Language:", language.FromCode(c.Model.Language).Label()),
		row("Source:", c.Recording.Source),
	}
	if c.Hotkey.Enabled {
		lines = append(lines, row("Hotkey:", c.Hotkey.Shortcut))
	} else {
		lines = append(lines, row("Hotkey:", "disabled"))
	}
	if c.Injection.Enabled {
		lines = append(lines, row("Clipboard:", strings.Join(c.Injection.Backends, " -> ")))
	} else {
		lines = append(lines, row("Clipboard:", "disabled"))
	}
	lines = append(lines, row("Notifications:", c.Notifications.Type))
	return lines
}

func waitForEnter() {
	fmt.Println(StyleMuted.Render("Press enter to continue"))
	fmt.Scanln()
}

func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}
