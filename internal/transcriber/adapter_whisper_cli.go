package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/whisperclip/whisperclip/internal/audio"
	"github.com/whisperclip/whisperclip/internal/model"
)

// WhisperCliAdapter runs the whisper.cpp command line tool once per clip.
// Loading only verifies the binary and model file are present; the process
// itself holds the weights for the duration of a single transcription.
type WhisperCliAdapter struct {
	modelPath string
	language  string
	threads   int
}

// NewWhisperCliAdapter creates a whisper-cli backend
// modelPath: full path to the ggml model file
// lang: whisper language code, empty for auto
// threads: number of CPU threads (0 for whisper-cli default)
func NewWhisperCliAdapter(modelPath, lang string, threads int) *WhisperCliAdapter {
	return &WhisperCliAdapter{
		modelPath: modelPath,
		language:  lang,
		threads:   threads,
	}
}

func (a *WhisperCliAdapter) Name() string { return "whispercli" }

func (a *WhisperCliAdapter) Load(ctx context.Context) (model.Handle, error) {
	// check model file exists
	if _, err := os.Stat(a.modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", a.modelPath)
	}

	// check whisper-cli exists
	whisperPath, err := exec.LookPath("whisper-cli")
	if err != nil {
		return nil, fmt.Errorf("whisper-cli not found: install whisper.cpp first")
	}

	return &whisperCliHandle{adapter: a, binary: whisperPath}, nil
}

type whisperCliHandle struct {
	adapter *WhisperCliAdapter
	binary  string
}

func (h *whisperCliHandle) Close() error { return nil }

func (h *whisperCliHandle) Transcribe(ctx context.Context, path string) (string, error) {
	samples, rate, err := audio.ReadWAV(path)
	if err != nil {
		return "", err
	}
	if len(samples) == 0 {
		return "", nil
	}

	// whisper-cli wants 16kHz input
	tmp, err := os.CreateTemp("", "whisperclip-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpFile := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpFile)

	if err := audio.WriteWAV(tmpFile, audio.Resample(samples, rate, audio.ModelSampleRate), audio.ModelSampleRate); err != nil {
		return "", fmt.Errorf("write resampled audio: %w", err)
	}

	// use whisper-cpp auto if unspecified
	lang := h.adapter.language
	if lang == "" {
		lang = "auto"
	}

	args := []string{
		"-m", h.adapter.modelPath,
		"-l", lang,
		"-nt", // no timestamps
		"-np", // no progress
		"-f", tmpFile,
	}
	if h.adapter.threads > 0 {
		args = append(args, "-t", fmt.Sprintf("%d", h.adapter.threads))
	}

	cmd := exec.CommandContext(ctx, h.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Printf("whisper-cli: command failed after %v: %v\nstderr: %s", duration, err, stderr.String())
		return "", fmt.Errorf("whisper-cli failed: %w", err)
	}

	text := strings.TrimSpace(stdout.String())
	log.Printf("whisper-cli: transcribed %v of audio in %v", audio.Duration(len(samples), rate), duration)
	return text, nil
}
