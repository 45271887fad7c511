package dto

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"vehicledetect/internal/model"
)

// RunInfo is one journal entry as shown by the history endpoint.
type RunInfo struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
	Objects    []string  `json:"objects"`
}

func NewRunInfo(run model.Run) RunInfo {
	return RunInfo{
		ID:         run.ID,
		Filename:   run.Filename,
		Width:      run.Width,
		Height:     run.Height,
		DurationMs: run.Duration.Milliseconds(),
		CreatedAt:  run.CreatedAt,
		Objects: lo.Map(run.Detections, func(d model.Detection, _ int) string {
			return d.ClassName
		}),
	}
}

// MarshalJSON formats CreatedAt for display.
func (r RunInfo) MarshalJSON() ([]byte, error) {
	type Alias RunInfo
	return json.Marshal(&struct {
		CreatedAt string `json:"createdAt"`
		Alias
	}{
		CreatedAt: r.CreatedAt.Local().Format("02-01-2006 15:04:05"),
		Alias:     (Alias)(r),
	})
}
