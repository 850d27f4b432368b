package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/whisperclip/whisperclip/internal/bus"
	"github.com/whisperclip/whisperclip/internal/config"
	"github.com/whisperclip/whisperclip/internal/deps"
	"github.com/whisperclip/whisperclip/internal/models/whisper"
	"github.com/whisperclip/whisperclip/internal/recording/portaudio"
	"github.com/whisperclip/whisperclip/internal/tui"
)

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := portaudio.ListInputDevices()
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}
			if len(devices) == 0 {
				fmt.Println("no input devices found")
				return nil
			}
			for _, d := range devices {
				fmt.Println(formatDevice(d))
			}
			return nil
		},
	}
}

func formatDevice(d portaudio.Device) string {
	marker := " "
	if d.Default {
		marker = "*"
	}
	return fmt.Sprintf("%s %s [%s, %d ch, %.0f Hz]", marker, d.Name, d.HostAPI, d.MaxInputChannels, d.DefaultSampleRate)
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, models and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			cfg, err := config.LoadFrom(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !runDoctor(os.Stdout, path, cfg, deps.CheckAll) {
				return fmt.Errorf("problems found")
			}
			return nil
		},
	}
}

// runDoctor prints a report and returns false if anything needs fixing.
func runDoctor(w io.Writer, path string, cfg *config.Config, check func([]deps.Tool) []deps.Status) bool {
	ok := true
	pass := func(format string, args ...any) {
		fmt.Fprintln(w, tui.StyleSuccess.Render("✓ ")+fmt.Sprintf(format, args...))
	}
	fail := func(format string, args ...any) {
		ok = false
		fmt.Fprintln(w, tui.StyleError.Render("✗ ")+fmt.Sprintf(format, args...))
	}

	if err := cfg.Validate(); err != nil {
		fail("config %s: %v", path, err)
	} else {
		pass("config %s", path)
	}

	if cfg.Model.Backend != "openai" && cfg.Model.Path == "" {
		if whisper.IsInstalled(cfg.Model.ID) {
			pass("model %s installed", cfg.Model.ID)
		} else {
			fail("model %s missing: run `whisperclip model download %s`", cfg.Model.ID, cfg.Model.ID)
		}
	}

	tools := deps.Required(deps.Setup{
		Source:            cfg.Recording.Source,
		Backend:           cfg.Model.Backend,
		InjectionBackends: cfg.Injection.Backends,
		Notification:      cfg.Notifications.Type,
	})
	for _, s := range check(tools) {
		if !s.Installed {
			fail("%s not found (needed for %s)", s.Tool.Name, s.Tool.Purpose)
			continue
		}
		if s.Version != "" {
			pass("%s: %s", s.Tool.Name, s.Version)
		} else {
			pass("%s: %s", s.Tool.Name, s.Path)
		}
	}

	if resp, err := bus.SendCommand(bus.CmdStatus); err == nil {
		fmt.Fprint(w, "daemon: "+resp)
	} else {
		fmt.Fprintln(w, "daemon: not running")
	}
	return ok
}
