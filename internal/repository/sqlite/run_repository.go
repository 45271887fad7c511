package sqlite

import (
	"fmt"
	"image"
	"time"

	"vehicledetect/internal/model"
)

// RunRepository implements repository.RunRepository for SQLite.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Insert stores the run and its detections in a single transaction.
func (r *RunRepository) Insert(run *model.Run) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := tx.Exec(`
		INSERT INTO runs (session, filename, width, height, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.Session, run.Filename, run.Width, run.Height, run.Duration.Milliseconds(), createdAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO detections (run_id, class_index, class_name, confidence, x, y, width, height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, det := range run.Detections {
		b := det.Box
		if _, err := stmt.Exec(runID, det.ClassIndex, det.ClassName, det.Confidence, b.Min.X, b.Min.Y, b.Dx(), b.Dy()); err != nil {
			return 0, fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = runID
	run.CreatedAt = createdAt
	return runID, nil
}

// Recent returns the newest runs first, each with its detections.
func (r *RunRepository) Recent(limit int) ([]model.Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, session, filename, width, height, duration_ms, created_at
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var durationMs int64
		if err := rows.Scan(&run.ID, &run.Session, &run.Filename, &run.Width, &run.Height, &durationMs, &run.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	// The single pooled connection must be free before the next query.
	for i := range runs {
		dets, err := r.detectionsFor(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Detections = dets
	}

	return runs, nil
}

func (r *RunRepository) detectionsFor(runID int64) ([]model.Detection, error) {
	rows, err := r.db.Conn().Query(`
		SELECT class_index, class_name, confidence, x, y, width, height
		FROM detections WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	detections := []model.Detection{}
	for rows.Next() {
		var det model.Detection
		var x, y, w, h int
		if err := rows.Scan(&det.ClassIndex, &det.ClassName, &det.Confidence, &x, &y, &w, &h); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		det.Box = image.Rect(x, y, x+w, y+h)
		detections = append(detections, det)
	}

	return detections, rows.Err()
}

// ClassCounts returns per-class totals, most frequent first.
func (r *RunRepository) ClassCounts() ([]model.ClassCount, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT class_name, COUNT(*) AS n FROM detections
		GROUP BY class_name ORDER BY n DESC, class_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query class counts: %w", err)
	}
	defer rows.Close()

	var counts []model.ClassCount
	for rows.Next() {
		var c model.ClassCount
		if err := rows.Scan(&c.ClassName, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan class count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// Count returns the number of stored runs.
func (r *RunRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var n int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// DeleteAll removes every run; detections go with them.
func (r *RunRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM runs`); err != nil {
		return fmt.Errorf("failed to delete runs: %w", err)
	}
	return nil
}
