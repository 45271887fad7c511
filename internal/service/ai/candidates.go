package ai

import (
	"vehicledetect/internal/model"
	"vehicledetect/internal/yolo"
)

// FromCandidates names decoded predictions, keeping their order.
func FromCandidates(cands []yolo.Candidate, names []string) []model.Detection {
	dets := make([]model.Detection, 0, len(cands))
	for _, c := range cands {
		dets = append(dets, model.Detection{
			ClassIndex: c.Class,
			ClassName:  ClassName(names, c.Class),
			Confidence: min(max(c.Score, 0), 1),
			Box:        c.Rect,
		})
	}
	return dets
}
