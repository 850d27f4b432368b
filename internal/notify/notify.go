package notify

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/gen2brain/beeep"
)

const appName = "WhisperClip"

type Notifier interface {
	RecordingChanged(on bool)
	Saved()
	Error(msg string)
}

// New returns the notifier for a notifications.type value.
func New(kind, soundFile string) (Notifier, error) {
	switch kind {
	case "sound":
		return Sound{File: soundFile}, nil
	case "desktop":
		return Desktop{}, nil
	case "log":
		return Log{}, nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown notification type: %s", kind)
	}
}

// Sound plays an audio cue when a transcript lands on the clipboard.
type Sound struct {
	File string
}

func (Sound) RecordingChanged(on bool) {}

func (s Sound) Saved() {
	if s.File != "" {
		if _, err := os.Stat(s.File); err == nil {
			err := play(s.File)
			if err == nil {
				return
			}
			log.Printf("Notify: failed to play %s: %v", s.File, err)
		}
	}
	if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
		log.Printf("Notify: beep failed: %v", err)
	}
}

func (Sound) Error(msg string) {
	log.Printf("Notify: %s", msg)
}

func play(path string) error {
	name, args, ok := playerCommand(runtime.GOOS, path)
	if !ok {
		return fmt.Errorf("no sound player for %s", runtime.GOOS)
	}
	if _, err := exec.LookPath(name); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).Run()
}

func playerCommand(goos, path string) (string, []string, bool) {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return "paplay", []string{path}, true
	case "darwin":
		return "afplay", []string{path}, true
	case "windows":
		return "powershell", []string{"-NoProfile", "-c",
			fmt.Sprintf("(New-Object Media.SoundPlayer '%s').PlaySync()", path)}, true
	default:
		return "", nil, false
	}
}

type Desktop struct{}

func (Desktop) RecordingChanged(on bool) {
	state := "Stopped"
	if on {
		state = "Started"
	}
	if err := beeep.Notify(appName, fmt.Sprintf("%s Recording", state), ""); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

func (Desktop) Saved() {
	if err := beeep.Notify(appName, "Transcription copied to clipboard", ""); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

func (Desktop) Error(msg string) {
	if err := beeep.Alert(appName, msg, ""); err != nil {
		log.Printf("Failed to send error notification: %v", err)
	}
}

type Log struct{}

func (Log) RecordingChanged(on bool) {
	if on {
		log.Printf("Notify: recording started")
		return
	}
	log.Printf("Notify: recording stopped")
}

func (Log) Saved()           { log.Printf("Notify: transcription copied to clipboard") }
func (Log) Error(msg string) { log.Printf("Notify: error: %s", msg) }

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) RecordingChanged(on bool) {}
func (Nop) Saved()                   {}
func (Nop) Error(msg string)         {}
