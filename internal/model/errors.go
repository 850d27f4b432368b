package model

import (
	"errors"
	"fmt"
)

// ErrLoad matches every *LoadError with errors.Is.
var ErrLoad = errors.New("model load failed")

// LoadError wraps a failure to bring the model into memory.
type LoadError struct {
	Backend string
	Err     error
}

func (e *LoadError) Error() string {
	if e == nil || e.Err == nil {
		return "model load failed"
	}
	return fmt.Sprintf("load %s model: %v", e.Backend, e.Err)
}

func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
