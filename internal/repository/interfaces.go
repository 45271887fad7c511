package repository

import (
	"vehicledetect/internal/model"
)

// RunRepository stores finished detection runs.
type RunRepository interface {
	// Create operations
	Insert(run *model.Run) (int64, error)

	// Read operations
	Recent(limit int) ([]model.Run, error)
	ClassCounts() ([]model.ClassCount, error)
	Count() (int, error)

	// Delete operations
	DeleteAll() error
}
