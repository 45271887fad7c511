package dto

// DetectResponse is the JSON payload of the one-shot detection API.
type DetectResponse struct {
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	Detections     []DetectionResult `json:"detections"`
	Lines          []string          `json:"lines"`
	AnnotatedImage string            `json:"annotated_image"`
	DurationMs     int64             `json:"duration_ms"`
}
