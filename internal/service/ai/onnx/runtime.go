// Package onnx runs YOLO models through the ONNX Runtime shared library.
package onnx

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"vehicledetect/internal/service/ai"
)

var (
	envOnce sync.Once
	envErr  error
)

// Init points onnxruntime_go at the shared library and initializes the
// environment. Only the first call has any effect.
func Init(libPath string) error {
	envOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	})
	return envErr
}

// Shutdown releases the environment if Init succeeded.
func Shutdown() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// MetadataNames reads the "names" entry the Ultralytics exporter writes
// into the model's custom metadata.
func MetadataNames(path string) ai.NameSource {
	return func() ([]string, error) {
		if !ort.IsInitialized() {
			return nil, nil
		}

		md, err := ort.GetModelMetadata(path)
		if err != nil {
			return nil, fmt.Errorf("error reading model metadata: %w", err)
		}
		defer md.Destroy()

		raw, ok, err := md.LookupCustomMetadataMap("names")
		if err != nil || !ok {
			return nil, err
		}
		return ai.ParseMetadataNames(raw)
	}
}
