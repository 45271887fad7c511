package yolo

import (
	"image"

	"github.com/chewxy/math32"
)

// PadValue is the gray used to fill letterbox borders.
const PadValue = 114

// Letterbox describes how a source image is fitted into the square (or
// rectangular) network input: uniform scale, then centered padding.
type Letterbox struct {
	SrcW, SrcH int
	InW, InH   int
	Scale      float32
	NewW, NewH int // size after scaling, before padding
	Left, Top  int
}

func NewLetterbox(srcW, srcH, inW, inH int) Letterbox {
	scale := min(float32(inW)/float32(srcW), float32(inH)/float32(srcH))
	newW := int(math32.Round(float32(srcW) * scale))
	newH := int(math32.Round(float32(srcH) * scale))

	return Letterbox{
		SrcW:  srcW,
		SrcH:  srcH,
		InW:   inW,
		InH:   inH,
		Scale: scale,
		NewW:  newW,
		NewH:  newH,
		Left:  int(math32.Round(float32(inW-newW)/2 - 0.1)),
		Top:   int(math32.Round(float32(inH-newH)/2 - 0.1)),
	}
}

// Right and Bottom padding complete the input size.
func (lb Letterbox) Right() int  { return lb.InW - lb.NewW - lb.Left }
func (lb Letterbox) Bottom() int { return lb.InH - lb.NewH - lb.Top }

// ToSource maps a box given in network-input pixels back onto the source
// image, clipped to its bounds.
func (lb Letterbox) ToSource(b Box) image.Rectangle {
	conv := func(v, pad float32, limit int) int {
		s := (v - pad) / lb.Scale
		s = max(0, min(s, float32(limit)))
		return int(math32.Round(s))
	}
	return image.Rect(
		conv(b.X1, float32(lb.Left), lb.SrcW),
		conv(b.Y1, float32(lb.Top), lb.SrcH),
		conv(b.X2, float32(lb.Left), lb.SrcW),
		conv(b.Y2, float32(lb.Top), lb.SrcH),
	)
}
