package dto

import "vehicledetect/internal/model"

// HistoryData is the response payload for the run journal.
type HistoryData struct {
	Runs    []RunInfo          `json:"runs"`
	Classes []model.ClassCount `json:"classes"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
}
