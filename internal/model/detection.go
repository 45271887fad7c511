package model

import "image"

// Detection is one labeled, scored box found by the model.
type Detection struct {
	ClassIndex int             `json:"class_index"`
	ClassName  string          `json:"class_name"`
	Confidence float32         `json:"confidence"`
	Box        image.Rectangle `json:"box"` // source-image pixels
}
