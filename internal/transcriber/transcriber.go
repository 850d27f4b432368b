package transcriber

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/whisperclip/whisperclip/internal/language"
	"github.com/whisperclip/whisperclip/internal/model"
	"github.com/whisperclip/whisperclip/internal/models/whisper"
	"github.com/whisperclip/whisperclip/internal/transcriber/whispercpp"
)

// Job is one recorded clip waiting to be transcribed.
type Job struct {
	ID        string
	Path      string
	Ready     *model.Signal
	CreatedAt time.Time
}

func NewJob(path string, ready *model.Signal) Job {
	return Job{
		ID:        uuid.NewString(),
		Path:      path,
		Ready:     ready,
		CreatedAt: time.Now(),
	}
}

// Sink receives finished transcripts.
type Sink interface {
	Deliver(ctx context.Context, text string) error
}

// Notifier is told when a transcript has been delivered.
type Notifier interface {
	Saved()
}

// Model is the part of model.Manager the worker needs.
type Model interface {
	Transcribe(ctx context.Context, path string) (string, error)
	Unload() error
}

// Backend selection for building a model.Backend.
type Config struct {
	Backend  string // "whispercpp", "whispercli", "openai"
	ModelID  string
	Path     string // explicit model file, overrides ModelID lookup
	Language string
	Threads  int
	APIKey   string
	BaseURL  string
}

// NewBackend builds the model backend named by config.Backend.
func NewBackend(config Config) (model.Backend, error) {
	switch config.Backend {
	case "whispercpp":
		path, err := resolveModelPath(config)
		if err != nil {
			return nil, err
		}
		return whispercpp.New(whispercpp.Config{
			ModelPath: path,
			Language:  language.ForBackend(config.Language, config.Backend),
			Threads:   config.Threads,
		}), nil

	case "whispercli":
		path, err := resolveModelPath(config)
		if err != nil {
			return nil, err
		}
		return NewWhisperCliAdapter(path, language.ForBackend(config.Language, config.Backend), config.Threads), nil

	case "openai":
		apiKey := config.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		// ggml ids name local files; the API picks its own default model for them
		modelName := config.ModelID
		if whisper.GetModel(modelName) != nil {
			modelName = ""
		}
		return NewOpenAIAdapter(apiKey, config.BaseURL, modelName, config.Language), nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", config.Backend)
	}
}

func resolveModelPath(config Config) (string, error) {
	if config.Path != "" {
		return config.Path, nil
	}
	if whisper.GetModel(config.ModelID) == nil {
		return "", fmt.Errorf("unknown model: %s", config.ModelID)
	}
	return whisper.GetModelPath(config.ModelID), nil
}
