package model

import "time"

// Run is one detection request as stored in the run journal.
type Run struct {
	ID         int64         `json:"id"`
	Session    string        `json:"session"`
	Filename   string        `json:"filename"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"created_at"`
	Detections []Detection   `json:"detections"`
}

// ClassCount is how many times a class was detected across the journal.
type ClassCount struct {
	ClassName string `json:"class_name"`
	Count     int    `json:"count"`
}
