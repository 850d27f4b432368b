package transcriber

import (
	"errors"
	"fmt"
)

var (
	ErrQueueClosed = errors.New("transcription queue closed")
	ErrEmptyAudio  = errors.New("audio file contains no samples")

	// ErrTranscription matches every *TranscriptionError with errors.Is.
	ErrTranscription = errors.New("transcription failed")
)

// TranscriptionError marks a job whose audio could not be turned into text.
type TranscriptionError struct {
	Path string
	Err  error
}

func (e *TranscriptionError) Error() string {
	if e == nil || e.Err == nil {
		return "transcription error"
	}
	return fmt.Sprintf("transcribe %s: %v", e.Path, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *TranscriptionError) Is(target error) bool { return target == ErrTranscription }

func NewTranscriptionError(path string, err error) error {
	if err == nil {
		return nil
	}
	return &TranscriptionError{Path: path, Err: err}
}

func IsTranscriptionError(err error) bool {
	var te *TranscriptionError
	return errors.As(err, &te)
}
