package dto

import (
	"encoding/json"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicledetect/internal/model"
)

func TestNewDetectionResults(t *testing.T) {
	got := NewDetectionResults([]model.Detection{
		{ClassIndex: 2, ClassName: "car", Confidence: 0.9, Box: image.Rect(10, 20, 50, 60)},
	})

	require.Len(t, got, 1)
	assert.Equal(t, Box{X: 10, Y: 20, Width: 40, Height: 40}, got[0].Box)
	assert.Equal(t, "car", got[0].ClassName)
}

func TestRunInfo_MarshalJSON(t *testing.T) {
	created := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	info := NewRunInfo(model.Run{
		ID:         4,
		Filename:   "street.jpg",
		Duration:   120 * time.Millisecond,
		CreatedAt:  created,
		Detections: []model.Detection{{ClassName: "car"}, {ClassName: "bus"}},
	})

	b, err := json.Marshal(info)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "09-03-2024 14:05:07", out["createdAt"])
	assert.Equal(t, []any{"car", "bus"}, out["objects"])
	assert.EqualValues(t, 120, out["durationMs"])
}
