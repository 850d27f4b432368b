//go:build whispercpp

package whispercpp

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/whisperclip/whisperclip/internal/audio"
	"github.com/whisperclip/whisperclip/internal/model"
)

func (b *Backend) Load(ctx context.Context) (model.Handle, error) {
	if _, err := os.Stat(b.config.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", b.config.ModelPath)
	}

	m, err := whisper.New(b.config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}
	return &handle{config: b.config, model: m}, nil
}

type handle struct {
	config Config
	mu     sync.Mutex
	model  whisper.Model
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model == nil {
		return nil
	}
	err := h.model.Close()
	h.model = nil
	return err
}

func (h *handle) Transcribe(ctx context.Context, path string) (string, error) {
	samples, rate, err := audio.ReadWAV(path)
	if err != nil {
		return "", err
	}
	if len(samples) == 0 {
		return "", nil
	}
	samples = audio.Resample(samples, rate, audio.ModelSampleRate)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model == nil {
		return "", fmt.Errorf("whisper model released")
	}

	wctx, err := h.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create context: %w", err)
	}

	lang := h.config.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		log.Printf("whispercpp: language %q rejected, using model default: %v", lang, err)
	}
	if h.config.Threads > 0 {
		wctx.SetThreads(uint(h.config.Threads))
	}
	wctx.SetTranslate(false)
	// beam search width
	wctx.SetBeamSize(5)

	start := time.Now()
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	var segments []string
	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}
		segments = append(segments, seg.Text)
	}

	text := strings.TrimSpace(strings.Join(segments, ""))
	log.Printf("whispercpp: transcribed %v of audio in %v", audio.Duration(len(samples), audio.ModelSampleRate), time.Since(start))
	return text, nil
}
