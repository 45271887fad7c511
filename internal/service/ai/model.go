// Package ai holds the detection model abstraction: loading and caching a
// model artifact, the class-name table, and decoding uploads.
package ai

import (
	"context"
	"image"

	"vehicledetect/internal/model"
	"vehicledetect/internal/render"
)

// Result is the output of one inference call.
type Result struct {
	// Annotated has the boxes and labels burned in, in BGR order, with the
	// same dimensions as the input image.
	Annotated  render.Image
	Detections []model.Detection
}

// Model is a loaded detection model. Implementations serialize Detect.
type Model interface {
	Detect(ctx context.Context, img image.Image) (*Result, error)
	Names() []string
	Close() error
}

// Opener builds a Model from an artifact that is known to exist.
type Opener func(path string) (Model, error)

// Availability is the outcome of loading the model at startup.
type Availability struct {
	Path  string
	Model Model
	Err   error
}

func (a Availability) Ready() bool {
	return a.Err == nil && a.Model != nil
}
