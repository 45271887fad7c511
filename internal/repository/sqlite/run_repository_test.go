package sqlite

import (
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicledetect/internal/model"
	"vehicledetect/internal/repository"
)

var _ repository.RunRepository = (*RunRepository)(nil)

func newTestRepo(t *testing.T) *RunRepository {
	db, err := New(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunRepository(db)
}

func TestRunRepository_InsertAndRecent(t *testing.T) {
	repo := newTestRepo(t)

	first := &model.Run{
		Session:  "s1",
		Filename: "street.jpg",
		Width:    1280,
		Height:   720,
		Duration: 85 * time.Millisecond,
		Detections: []model.Detection{
			{ClassIndex: 2, ClassName: "car", Confidence: 0.91, Box: image.Rect(10, 20, 110, 80)},
			{ClassIndex: 7, ClassName: "truck", Confidence: 0.55, Box: image.Rect(300, 40, 500, 200)},
		},
	}
	id, err := repo.Insert(first)
	require.NoError(t, err)
	assert.Equal(t, id, first.ID)

	_, err = repo.Insert(&model.Run{Session: "s2", Filename: "empty.png", Width: 64, Height: 64})
	require.NoError(t, err)

	runs, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "empty.png", runs[0].Filename)
	assert.Empty(t, runs[0].Detections)

	got := runs[1]
	assert.Equal(t, "street.jpg", got.Filename)
	assert.Equal(t, 85*time.Millisecond, got.Duration)
	require.Len(t, got.Detections, 2)
	assert.Equal(t, "car", got.Detections[0].ClassName)
	assert.Equal(t, image.Rect(10, 20, 110, 80), got.Detections[0].Box)
	assert.InDelta(t, 0.55, got.Detections[1].Confidence, 1e-6)

	limited, err := repo.Recent(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRunRepository_ClassCountsAndDelete(t *testing.T) {
	repo := newTestRepo(t)

	car := model.Detection{ClassIndex: 2, ClassName: "car", Confidence: 0.8}
	bus := model.Detection{ClassIndex: 5, ClassName: "bus", Confidence: 0.7}
	_, err := repo.Insert(&model.Run{Session: "s", Filename: "a.jpg", Detections: []model.Detection{car, car, bus}})
	require.NoError(t, err)
	_, err = repo.Insert(&model.Run{Session: "s", Filename: "b.jpg", Detections: []model.Detection{car}})
	require.NoError(t, err)

	counts, err := repo.ClassCounts()
	require.NoError(t, err)
	assert.Equal(t, []model.ClassCount{{ClassName: "car", Count: 3}, {ClassName: "bus", Count: 1}}, counts)

	require.NoError(t, repo.DeleteAll())

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	counts, err = repo.ClassCounts()
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestRunRepository_ConcurrentInserts(t *testing.T) {
	repo := newTestRepo(t)

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			run := &model.Run{
				Session:    "s",
				Filename:   "concurrent_" + string(rune('a'+idx)) + ".jpg",
				Detections: []model.Detection{{ClassName: "car", Confidence: 0.5}},
			}
			if _, err := repo.Insert(run); err != nil {
				t.Errorf("Concurrent insert %d failed: %v", idx, err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestRunRepository_DetectionsCascade(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	defer db.Close()
	repo := NewRunRepository(db)

	_, err = repo.Insert(&model.Run{Session: "s", Filename: "fk.jpg", Detections: []model.Detection{
		{ClassName: "person", Confidence: 0.9},
		{ClassName: "car", Confidence: 0.85},
	}})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteAll())

	var left int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM detections`).Scan(&left))
	assert.Zero(t, left)
}
