package onnx

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"vehicledetect/internal/logger"
	"vehicledetect/internal/service/ai"
	"vehicledetect/internal/service/ai/opencv"
	"vehicledetect/internal/yolo"
)

type Options struct {
	Params yolo.Params
	Names  func(path string) []string
}

type Detector struct {
	mu       sync.Mutex
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
	outShape []int
	inW, inH int
	names    []string
	params   yolo.Params
	logger   *logger.Logger
}

func Opener(opts Options, logger *logger.Logger) ai.Opener {
	return func(path string) (ai.Model, error) {
		return New(path, opts, logger)
	}
}

// New builds a session whose tensors match the shapes declared in the model.
// Models exported with dynamic axes are rejected.
func New(path string, opts Options, logger *logger.Logger) (*Detector, error) {
	if !ort.IsInitialized() {
		return nil, fmt.Errorf("ONNX environment is not initialized")
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("error reading model inputs and outputs: %w", err)
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, fmt.Errorf("expected 1 input and at least 1 output, got %d and %d", len(inputs), len(outputs))
	}

	in := inputs[0].Dimensions
	if len(in) != 4 || in[1] != 3 || in[2] <= 0 || in[3] <= 0 {
		return nil, fmt.Errorf("unsupported input shape %v", in)
	}
	out := outputs[0].Dimensions
	outShape := make([]int, len(out))
	for i, d := range out {
		if d <= 0 {
			return nil, fmt.Errorf("unsupported dynamic output shape %v", out)
		}
		outShape[i] = int(d)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(runtime.NumCPU()); err != nil {
		logger.Warning("Could not set intra-op threads: %v", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, in[2], in[3]))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(out...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		path,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	d := &Detector{
		session:  session,
		input:    inputTensor,
		output:   outputTensor,
		outShape: outShape,
		inW:      int(in[3]),
		inH:      int(in[2]),
		params:   opts.Params,
		logger:   logger,
	}
	if opts.Names != nil {
		d.names = opts.Names(path)
	}
	if len(d.names) == 0 {
		d.names = ai.COCOClasses
	}

	logger.Info("ONNX Runtime session created (input %dx%d, output %v)", d.inW, d.inH, outShape)
	return d, nil
}

func (d *Detector) Names() []string {
	return d.names
}

func (d *Detector) Detect(ctx context.Context, img image.Image) (*ai.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	lb := yolo.NewLetterbox(b.Dx(), b.Dy(), d.inW, d.inH)

	cands, err := d.infer(img, lb)
	if err != nil {
		return nil, err
	}
	dets := ai.FromCandidates(cands, d.names)

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to Mat: %w", err)
	}
	defer mat.Close()

	annotated, err := opencv.Annotate(mat, dets)
	if err != nil {
		return nil, err
	}
	return &ai.Result{Annotated: annotated, Detections: dets}, nil
}

func (d *Detector) infer(img image.Image, lb yolo.Letterbox) ([]yolo.Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := yolo.FillTensor(img, lb, d.input.GetData()); err != nil {
		return nil, err
	}
	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("error running session: %w", err)
	}

	out, err := yolo.NewOutput(d.output.GetData(), d.outShape, len(d.names))
	if err != nil {
		return nil, err
	}
	return yolo.Decode(out, lb, d.params), nil
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return multierr.Combine(d.session.Destroy(), d.input.Destroy(), d.output.Destroy())
}
