// Package coordinator runs the per-feature generation workflows against an
// injected project store. Each coordinator tracks its own busy and error
// state; a failure in one never affects another.
package coordinator

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/onoo-labs/marketing-assistant/internal/generation"
	"github.com/onoo-labs/marketing-assistant/internal/imaging"
	"github.com/onoo-labs/marketing-assistant/internal/logging"
	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
)

var (
	ErrBusy         = errors.New("operation already running")
	ErrInvalidInput = errors.New("invalid input")
)

// InputError rejects a request before any generation call is made.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// StateStore is the part of the project store coordinators mutate.
type StateStore interface {
	State() domain.ProjectState
	Update(ctx context.Context, fn func(*domain.ProjectState)) domain.ProjectState
}

type TextGenerator interface {
	GenerateText(ctx context.Context, req generation.TextRequest) (string, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, req generation.ImageRequest) (imaging.RasterImage, error)
}

type ChatStreamer interface {
	StreamChat(ctx context.Context, req generation.ChatRequest) iter.Seq2[generation.ChatChunk, error]
}

// Compositor brands generated images with the saved logos.
type Compositor interface {
	Watermark(ctx context.Context, base imaging.RasterImage, primary, secondary *imaging.RasterImage) (imaging.RasterImage, error)
}

// Models names the model used by each workflow.
type Models struct {
	Text    string
	Chat    string
	Image   string
	AdImage string
	Voice   string
}

// Status is the busy and error state of one workflow.
type Status struct {
	Busy bool
	Err  error
}

type tracker struct {
	mu sync.Mutex
	st Status
}

func (t *tracker) begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st.Busy {
		return ErrBusy
	}
	t.st = Status{Busy: true}
	return nil
}

// end records the outcome and returns it.
func (t *tracker) end(err error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st = Status{Err: err}
	return err
}

// reject records a validation failure without touching Busy.
func (t *tracker) reject(message string) error {
	err := &InputError{Message: message}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st.Err = err
	return err
}

func (t *tracker) status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st
}

// brand crops img to ratio and watermarks it with the saved logos,
// returning the result as a data URI.
func brand(ctx context.Context, comp Compositor, log logging.Logger, img imaging.RasterImage, ratio imaging.AspectRatio, logos domain.Logos) (string, error) {
	cropped, err := imaging.Crop(img, ratio.Value())
	if err != nil {
		return "", err
	}
	out, err := comp.Watermark(ctx, cropped, logoImage(log, logos.Primary), logoImage(log, logos.Secondary))
	if err != nil {
		return "", err
	}
	return out.DataURI(), nil
}

func logoImage(log logging.Logger, uri string) *imaging.RasterImage {
	if uri == "" {
		return nil
	}
	img, err := imaging.ParseDataURI(uri)
	if err != nil {
		log.LogWarnf("coordinator.brand", "ignoring saved logo: %v", err)
		return nil
	}
	return &img
}

// ratioOr parses s, falling back to def when s is empty.
func ratioOr(s, def string) (imaging.AspectRatio, error) {
	if s == "" {
		s = def
	}
	return imaging.ParseAspectRatio(s)
}
