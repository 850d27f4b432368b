package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/whisperclip/whisperclip/internal/config"
)

func TestModelOptions(t *testing.T) {
	installed := func(id string) bool { return id == "base.en" }

	tests := []struct {
		name     string
		lang     string
		wantIn   []string
		wantOut  []string
		checkSet string
	}{
		{
			name:     "auto lists everything",
			lang:     "",
			wantIn:   []string{"tiny.en", "base.en", "medium", "large-v3"},
			checkSet: "base.en",
		},
		{
			name:    "german drops english-only",
			lang:    "de",
			wantIn:  []string{"tiny", "medium", "large-v3"},
			wantOut: []string{"tiny.en", "medium.en"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := map[string]string{}
			for _, o := range modelOptions(tt.lang, installed) {
				labels[o.Value] = o.Key
			}
			for _, id := range tt.wantIn {
				if _, ok := labels[id]; !ok {
					t.Errorf("missing %s", id)
				}
			}
			for _, id := range tt.wantOut {
				if _, ok := labels[id]; ok {
					t.Errorf("%s should be filtered out", id)
				}
			}
			if tt.checkSet != "" && !strings.HasPrefix(labels[tt.checkSet], "[x]") {
				t.Errorf("installed model label = %q, want [x] prefix", labels[tt.checkSet])
			}
		})
	}
}

func TestLanguageOptions(t *testing.T) {
	options := languageOptions("de")
	if options[0].Value != "" {
		t.Errorf("first option = %q, want auto-detect", options[0].Value)
	}

	var found bool
	for _, o := range options {
		if o.Value == "de" {
			found = true
			if !strings.HasSuffix(o.Key, "(current)") {
				t.Errorf("current language label = %q", o.Key)
			}
		}
	}
	if !found {
		t.Error("german missing from options")
	}
}

func TestValidateShortcut(t *testing.T) {
	if err := validateShortcut("alt+shift+r"); err != nil {
		t.Errorf("valid shortcut rejected: %v", err)
	}
	if err := validateShortcut("r"); err == nil {
		t.Error("shortcut without modifier should be rejected")
	}
}

func TestValidateSoundFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "done.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := validateSoundFile(""); err != nil {
		t.Errorf("empty path should be accepted: %v", err)
	}
	if err := validateSoundFile(path); err != nil {
		t.Errorf("existing file rejected: %v", err)
	}
	if err := validateSoundFile(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("missing file should be rejected")
	}
}

func TestMenuLabels(t *testing.T) {
	c := config.DefaultConfig()

	if got := modelLabel(c); got != "Model (whispercpp, medium.en)" {
		t.Errorf("modelLabel() = %q", got)
	}
	if got := hotkeyLabel(c); got != "Hotkey (Shift+Alt+R)" {
		t.Errorf("hotkeyLabel() = %q", got)
	}

	c.Hotkey.Enabled = false
	if got := hotkeyLabel(c); got != "Hotkey (disabled)" {
		t.Errorf("hotkeyLabel() = %q", got)
	}

	c.Model.Backend = "openai"
	c.Model.ID = ""
	if got := modelLabel(c); got != "Model (openai, whisper-1)" {
		t.Errorf("modelLabel() = %q", got)
	}

	c.Injection.Enabled = false
	if got := outputLabel(c); got != "Output (clipboard off)" {
		t.Errorf("outputLabel() = %q", got)
	}
}

func TestSummaryLines(t *testing.T) {
	c := config.DefaultConfig()
	joined := strings.Join(summaryLines(c), "\n")
	for _, want := range []string{"medium.en", "whispercpp", "alt+shift+r", "clipboard -> wl-copy", "sound"} {
		if !strings.Contains(joined, want) {
			t.Errorf("summary missing %q:\n%s", want, joined)
		}
	}
}
