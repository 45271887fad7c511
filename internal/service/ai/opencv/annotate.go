package opencv

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"vehicledetect/internal/model"
	"vehicledetect/internal/render"
)

// palette follows the Ultralytics plotting colors.
var palette = []color.RGBA{
	{0xFF, 0x38, 0x38, 0}, {0xFF, 0x9D, 0x97, 0}, {0xFF, 0x70, 0x1F, 0}, {0xFF, 0xB2, 0x1D, 0},
	{0xCF, 0xD2, 0x31, 0}, {0x48, 0xF9, 0x0A, 0}, {0x92, 0xCC, 0x17, 0}, {0x3D, 0xDB, 0x86, 0},
	{0x1A, 0x93, 0x34, 0}, {0x00, 0xD4, 0xBB, 0}, {0x2C, 0x99, 0xA8, 0}, {0x00, 0xC2, 0xFF, 0},
	{0x34, 0x45, 0x93, 0}, {0x64, 0x73, 0xFF, 0}, {0x00, 0x18, 0xEC, 0}, {0x84, 0x38, 0xFF, 0},
	{0x52, 0x00, 0x85, 0}, {0xCB, 0x38, 0xFF, 0}, {0xFF, 0x95, 0xC8, 0}, {0xFF, 0x37, 0xC7, 0},
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 0}

// Annotate draws boxes and "<name> <conf>" labels on a copy of the BGR Mat
// and returns its pixels, still in BGR order.
func Annotate(src gocv.Mat, detections []model.Detection) (render.Image, error) {
	canvas := src.Clone()
	defer canvas.Close()

	lineWidth := max(int(math.Round(float64(canvas.Rows()+canvas.Cols())/2*0.003)), 2)
	fontThickness := max(lineWidth-1, 1)
	fontScale := float64(lineWidth) / 3

	for _, det := range detections {
		c := palette[max(det.ClassIndex, 0)%len(palette)]

		if err := gocv.Rectangle(&canvas, det.Box, c, lineWidth); err != nil {
			return render.Image{}, fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := fmt.Sprintf("%s %.2f", det.ClassName, det.Confidence)
		size := gocv.GetTextSize(label, gocv.FontHersheySimplex, fontScale, fontThickness)

		// Label sits above the box, or just inside it at the top edge.
		top := det.Box.Min.Y - size.Y - 3
		if top < 0 {
			top = det.Box.Min.Y
		}
		bg := image.Rect(det.Box.Min.X, top, det.Box.Min.X+size.X, top+size.Y+3)
		if err := gocv.Rectangle(&canvas, bg, c, -1); err != nil {
			return render.Image{}, fmt.Errorf("failed to draw label background: %w", err)
		}
		if err := gocv.PutText(&canvas, label, image.Pt(bg.Min.X, bg.Max.Y-2), gocv.FontHersheySimplex, fontScale, white, fontThickness); err != nil {
			return render.Image{}, fmt.Errorf("failed to draw text: %w", err)
		}
	}

	return render.NewImage(canvas.Cols(), canvas.Rows(), render.BGR, canvas.ToBytes())
}
