package dto

import (
	"github.com/samber/lo"

	"vehicledetect/internal/model"
)

type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type DetectionResult struct {
	ClassIndex int     `json:"class_index"`
	ClassName  string  `json:"class_name"`
	Confidence float32 `json:"confidence"`
	Box        Box     `json:"box"`
}

// NewDetectionResults keeps the model's ordering.
func NewDetectionResults(dets []model.Detection) []DetectionResult {
	return lo.Map(dets, func(d model.Detection, _ int) DetectionResult {
		return DetectionResult{
			ClassIndex: d.ClassIndex,
			ClassName:  d.ClassName,
			Confidence: d.Confidence,
			Box: Box{
				X:      d.Box.Min.X,
				Y:      d.Box.Min.Y,
				Width:  d.Box.Dx(),
				Height: d.Box.Dy(),
			},
		}
	})
}
