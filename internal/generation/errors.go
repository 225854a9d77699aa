package generation

import (
	"errors"
	"fmt"
)

var (
	ErrGeneration = errors.New("generation failed")
	ErrNoImage    = errors.New("model returned no image")
	ErrNoAPIKey   = errors.New("generation API key is not set")
)

// GenerationError carries the localized message shown to the user next to
// the underlying cause.
type GenerationError struct {
	Op      string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGeneration}
	}
	return []error{ErrGeneration, e.Err}
}

// Wrap builds a GenerationError, or returns nil when err is nil.
func Wrap(op, message string, err error) error {
	if err == nil {
		return nil
	}
	return &GenerationError{Op: op, Message: message, Err: err}
}

// UserMessage returns the localized text to display for err, or fallback
// when err carries none.
func UserMessage(err error, fallback string) string {
	var gerr *GenerationError
	if errors.As(err, &gerr) && gerr.Message != "" {
		return gerr.Message
	}
	return fallback
}
