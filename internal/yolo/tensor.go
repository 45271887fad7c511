package yolo

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// FillTensor letterboxes img into dst as a 1x3xHxW RGB tensor scaled to [0,1].
func FillTensor(img image.Image, lb Letterbox, dst []float32) error {
	plane := lb.InW * lb.InH
	if len(dst) != 3*plane {
		return fmt.Errorf("tensor holds %d values, want %d", len(dst), 3*plane)
	}

	resized := imaging.Resize(img, max(lb.NewW, 1), max(lb.NewH, 1), imaging.Linear)
	canvas := imaging.New(lb.InW, lb.InH, color.NRGBA{R: PadValue, G: PadValue, B: PadValue, A: 255})
	canvas = imaging.Paste(canvas, resized, image.Pt(lb.Left, lb.Top))

	for i := 0; i < plane; i++ {
		px := canvas.Pix[i*4 : i*4+3]
		dst[i] = float32(px[0]) / 255.0
		dst[plane+i] = float32(px[1]) / 255.0
		dst[2*plane+i] = float32(px[2]) / 255.0
	}
	return nil
}
