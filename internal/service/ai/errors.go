package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotFound matches a *NotFoundError.
	ErrModelNotFound = errors.New("model file not found")
	// ErrModelUnavailable is returned when detection is requested without a loaded model.
	ErrModelUnavailable = errors.New("detection model is not loaded")
	// ErrUnsupportedFormat rejects uploads that are not jpg, jpeg or png.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrImageTooLarge is wrapped in a *DecodeError when the declared
	// dimensions exceed the pixel limit.
	ErrImageTooLarge = errors.New("image dimensions exceed the pixel limit")
)

// NotFoundError reports a model path that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("model file not found: %s", e.Path)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrModelNotFound
}

// LoadError wraps the backend failure for a model file that exists but
// could not be opened.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load model %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// DecodeError reports an upload that could not be decoded as an image.
type DecodeError struct {
	Filename string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image %q: %v", e.Filename, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
