// Package opencv runs YOLO ONNX models through the OpenCV DNN module.
package opencv

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"vehicledetect/internal/logger"
	"vehicledetect/internal/service/ai"
	"vehicledetect/internal/yolo"
)

// DefaultInputSize is the export size of the stock YOLO checkpoints.
const DefaultInputSize = 640

type Options struct {
	InputSize int
	Params    yolo.Params
	// Names resolves the class table for a model path.
	Names func(path string) []string
}

type Detector struct {
	mu     sync.Mutex
	net    gocv.Net
	names  []string
	size   int
	params yolo.Params
	logger *logger.Logger
}

// Opener adapts New to ai.Opener.
func Opener(opts Options, logger *logger.Logger) ai.Opener {
	return func(path string) (ai.Model, error) {
		return New(path, opts, logger)
	}
}

// New reads the network and sets CPU preferences.
func New(path string, opts Options, logger *logger.Logger) (*Detector, error) {
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("opencv could not read network from %s", path)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	d := &Detector{
		net:    net,
		size:   opts.InputSize,
		params: opts.Params,
		logger: logger,
	}
	if d.size <= 0 {
		d.size = DefaultInputSize
	}
	if opts.Names != nil {
		d.names = opts.Names(path)
	}
	if len(d.names) == 0 {
		d.names = ai.COCOClasses
	}

	logger.Info("OpenCV network initialized (input %dx%d)", d.size, d.size)
	return d, nil
}

func (d *Detector) Names() []string {
	return d.names
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// Detect letterboxes the image, runs the network and draws the result.
func (d *Detector) Detect(ctx context.Context, img image.Image) (*ai.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to Mat: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("converted image is empty")
	}

	lb := yolo.NewLetterbox(mat.Cols(), mat.Rows(), d.size, d.size)
	cands, err := d.infer(mat, lb)
	if err != nil {
		return nil, err
	}

	dets := ai.FromCandidates(cands, d.names)
	annotated, err := Annotate(mat, dets)
	if err != nil {
		return nil, err
	}
	return &ai.Result{Annotated: annotated, Detections: dets}, nil
}

func (d *Detector) infer(mat gocv.Mat, lb yolo.Letterbox) ([]yolo.Candidate, error) {
	input, err := letterbox(mat, lb)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	blob := gocv.BlobFromImage(input, 1.0/255.0, image.Pt(lb.InW, lb.InH), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}
	out, err := yolo.NewOutput(data, output.Size(), len(d.names))
	if err != nil {
		return nil, err
	}
	if out.NumClasses() > len(d.names) {
		d.logger.Warning("Model outputs %d classes but the name table has %d", out.NumClasses(), len(d.names))
	}
	return yolo.Decode(out, lb, d.params), nil
}

// letterbox resizes keeping the aspect ratio and pads to the input size.
func letterbox(src gocv.Mat, lb yolo.Letterbox) (gocv.Mat, error) {
	resized := gocv.NewMat()
	defer resized.Close()
	if err := gocv.Resize(src, &resized, image.Pt(lb.NewW, lb.NewH), 0, 0, gocv.InterpolationLinear); err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to resize image: %w", err)
	}

	padded := gocv.NewMat()
	pad := color.RGBA{R: yolo.PadValue, G: yolo.PadValue, B: yolo.PadValue, A: 0}
	if err := gocv.CopyMakeBorder(resized, &padded, lb.Top, lb.Bottom(), lb.Left, lb.Right(), gocv.BorderConstant, pad); err != nil {
		padded.Close()
		return gocv.Mat{}, fmt.Errorf("failed to pad image: %w", err)
	}
	return padded, nil
}
