// Package yolo decodes the raw output tensor of Ultralytics YOLO detection
// models (v8 and later, no objectness column) into scored boxes.
package yolo

import (
	"fmt"
	"image"
	"sort"
)

const (
	DefaultConfThreshold = 0.25
	DefaultIouThreshold  = 0.7
	DefaultMaxDetections = 300
)

// Params are the post-processing knobs; zero values fall back to the defaults.
type Params struct {
	ConfThreshold float32
	IouThreshold  float32
	MaxDetections int
}

func (p Params) withDefaults() Params {
	if p.ConfThreshold <= 0 {
		p.ConfThreshold = DefaultConfThreshold
	}
	if p.IouThreshold <= 0 {
		p.IouThreshold = DefaultIouThreshold
	}
	if p.MaxDetections <= 0 {
		p.MaxDetections = DefaultMaxDetections
	}
	return p
}

// Box is an xyxy box in network-input pixels.
type Box struct {
	X1, Y1, X2, Y2 float32
}

func (b Box) area() float32 {
	return max(0, b.X2-b.X1) * max(0, b.Y2-b.Y1)
}

// IOU is intersection over union.
func (b Box) IOU(o Box) float32 {
	inter := Box{max(b.X1, o.X1), max(b.Y1, o.Y1), min(b.X2, o.X2), min(b.Y2, o.Y2)}.area()
	union := b.area() + o.area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Candidate is a decoded prediction.
type Candidate struct {
	Class int
	Score float32
	Box   Box
	Rect  image.Rectangle // Box mapped onto the source image
}

// Output is a view over the raw output tensor.
type Output struct {
	Data        []float32
	attrs, rows int
	attrsFirst  bool
}

// NewOutput validates the tensor shape. Ultralytics exports [1, 4+nc, n]
// and that layout is assumed. The transposed [1, n, 4+nc] layout is used
// only when numClasses is positive, the last axis equals 4+numClasses and
// the first does not. A leading batch axis of 1 is optional.
func NewOutput(data []float32, shape []int, numClasses int) (*Output, error) {
	dims := shape
	if len(dims) == 3 {
		if dims[0] != 1 {
			return nil, fmt.Errorf("unsupported batch size %d", dims[0])
		}
		dims = dims[1:]
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}
	a, b := dims[0], dims[1]
	if a*b != len(data) {
		return nil, fmt.Errorf("output length %d does not match shape %v", len(data), shape)
	}

	out := &Output{Data: data, attrs: a, rows: b, attrsFirst: true}
	if numClasses > 0 && b == 4+numClasses && a != b {
		out.attrs, out.rows, out.attrsFirst = b, a, false
	}
	if out.attrs < 5 {
		return nil, fmt.Errorf("output has %d attributes, need at least 5", out.attrs)
	}
	return out, nil
}

// NumClasses is the class cardinality encoded in the tensor.
func (o *Output) NumClasses() int { return o.attrs - 4 }

func (o *Output) at(row, attr int) float32 {
	if o.attrsFirst {
		return o.Data[attr*o.rows+row]
	}
	return o.Data[row*o.attrs+attr]
}

// Decode thresholds, runs class-aware NMS and maps boxes back to the source
// image. Results are ordered by descending score.
func Decode(o *Output, lb Letterbox, p Params) []Candidate {
	p = p.withDefaults()

	var cands []Candidate
	for i := 0; i < o.rows; i++ {
		best, score := 0, float32(0)
		for c := 0; c < o.NumClasses(); c++ {
			if s := o.at(i, 4+c); s > score {
				best, score = c, s
			}
		}
		if score <= p.ConfThreshold {
			continue
		}

		cx, cy, w, h := o.at(i, 0), o.at(i, 1), o.at(i, 2), o.at(i, 3)
		cands = append(cands, Candidate{
			Class: best,
			Score: score,
			Box:   Box{cx - w/2, cy - h/2, cx + w/2, cy + h/2},
		})
	}

	kept := NMS(cands, p.IouThreshold, p.MaxDetections)
	for i := range kept {
		kept[i].Rect = lb.ToSource(kept[i].Box)
	}
	return kept
}

// NMS greedily keeps the highest-scoring box of each overlapping same-class group.
func NMS(cands []Candidate, iou float32, maxDet int) []Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})

	suppressed := make([]bool, len(cands))
	kept := make([]Candidate, 0, min(len(cands), maxDet))
	for i := range cands {
		if suppressed[i] {
			continue
		}
		kept = append(kept, cands[i])
		if len(kept) == maxDet {
			break
		}
		for j := i + 1; j < len(cands); j++ {
			if !suppressed[j] && cands[j].Class == cands[i].Class && cands[i].Box.IOU(cands[j].Box) > iou {
				suppressed[j] = true
			}
		}
	}
	return kept
}
