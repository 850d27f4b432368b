package transcriber

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/whisperclip/whisperclip/internal/model"
)

const defaultOpenAIModel = openai.Whisper1

// OpenAIAdapter transcribes through an OpenAI compatible audio API. Loading
// creates the client; nothing is held in local memory.
type OpenAIAdapter struct {
	apiKey   string
	baseURL  string
	model    string
	language string
}

func NewOpenAIAdapter(apiKey, baseURL, modelName, language string) *OpenAIAdapter {
	if modelName == "" {
		modelName = defaultOpenAIModel
	}
	return &OpenAIAdapter{
		apiKey:   apiKey,
		baseURL:  baseURL,
		model:    modelName,
		language: language,
	}
}

func (a *OpenAIAdapter) Name() string { return "openai" }

func (a *OpenAIAdapter) Load(ctx context.Context) (model.Handle, error) {
	cfg := openai.DefaultConfig(a.apiKey)
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	return &openAIHandle{adapter: a, client: openai.NewClientWithConfig(cfg)}, nil
}

type openAIHandle struct {
	adapter *OpenAIAdapter
	client  *openai.Client
}

func (h *openAIHandle) Close() error { return nil }

func (h *openAIHandle) Transcribe(ctx context.Context, path string) (string, error) {
	req := openai.AudioRequest{
		Model:    h.adapter.model,
		FilePath: path,
		Language: h.adapter.language,
	}

	start := time.Now()
	resp, err := h.client.CreateTranscription(ctx, req)
	duration := time.Since(start)

	if err != nil {
		log.Printf("openai-adapter: API call failed after %v: %v", duration, err)
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	log.Printf("openai-adapter: transcribed %s in %v", path, duration)
	return resp.Text, nil
}
