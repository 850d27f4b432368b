//go:build !whispercpp

package whispercpp

import (
	"context"
	"errors"

	"github.com/whisperclip/whisperclip/internal/model"
)

var ErrNotCompiled = errors.New("whisperclip was built without whisper.cpp support (rebuild with -tags whispercpp)")

func (b *Backend) Load(ctx context.Context) (model.Handle, error) {
	return nil, ErrNotCompiled
}
