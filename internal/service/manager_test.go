package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicledetect/internal/config"
	"vehicledetect/internal/logger/loggertest"
	"vehicledetect/internal/model"
	"vehicledetect/internal/render"
	"vehicledetect/internal/service/ai"
	"vehicledetect/internal/service/session"
	"vehicledetect/internal/service/websocket"
)

type fakeModel struct {
	detections []model.Detection
	annotated  *render.Image // overrides the echoed input
	err        error
	calls      int
}

func (f *fakeModel) Detect(_ context.Context, img image.Image) (*ai.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	annotated := render.FromImage(img, render.BGR)
	if f.annotated != nil {
		annotated = *f.annotated
	}
	return &ai.Result{
		Annotated:  annotated,
		Detections: f.detections,
	}, nil
}

func (f *fakeModel) Names() []string { return ai.COCOClasses }
func (f *fakeModel) Close() error    { return nil }

type memoryRuns struct {
	runs []model.Run
}

func (r *memoryRuns) Insert(run *model.Run) (int64, error) {
	run.ID = int64(len(r.runs) + 1)
	r.runs = append(r.runs, *run)
	return run.ID, nil
}
func (r *memoryRuns) Recent(limit int) ([]model.Run, error)    { return r.runs, nil }
func (r *memoryRuns) ClassCounts() ([]model.ClassCount, error) { return nil, nil }
func (r *memoryRuns) Count() (int, error)                      { return len(r.runs), nil }
func (r *memoryRuns) DeleteAll() error                         { r.runs = nil; return nil }

func jpegBytes(t *testing.T, w, h int) []byte {
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{R: 200, G: 30, B: 30, A: 255}), imaging.JPEG))
	return buf.Bytes()
}

func newTestManager(t *testing.T, fm *fakeModel, withModelFile bool) (*Manager, *memoryRuns) {
	log := loggertest.New(t)
	path := filepath.Join(t.TempDir(), "best.onnx")
	if withModelFile {
		require.NoError(t, os.WriteFile(path, []byte("onnx"), 0644))
	}

	loader := ai.NewLoader(func(string) (ai.Model, error) { return fm, nil }, log)
	runs := &memoryRuns{}
	cfg := &config.Config{ModelPath: path}
	return NewManager(cfg, loader, session.NewStore(0, log), websocket.NewHubService(log), runs, log), runs
}

func TestManager_UploadThenDetect(t *testing.T) {
	fm := &fakeModel{detections: []model.Detection{
		{ClassIndex: 2, ClassName: "car", Confidence: 0.876, Box: image.Rect(1, 1, 10, 10)},
		{ClassIndex: 7, ClassName: "truck", Confidence: 0.5, Box: image.Rect(5, 5, 20, 20)},
	}}
	m, runs := newTestManager(t, fm, true)
	sess := m.Session("")

	require.NoError(t, m.Upload(sess.ID, "street.jpg", jpegBytes(t, 32, 24)))
	assert.Equal(t, session.FileSelectedAwaitingAction, m.Session(sess.ID).State(true))
	assert.Zero(t, fm.calls)
	assert.True(t, strings.HasPrefix(m.Session(sess.ID).Upload.PreviewURI, "data:image/jpeg;base64,"))

	out, err := m.Detect(context.Background(), sess.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"car (confidence: 0.88)", "truck (confidence: 0.50)"}, out.Lines)
	assert.True(t, strings.HasPrefix(out.AnnotatedURI, "data:image/jpeg;base64,"))
	assert.Equal(t, session.ResultsShown, m.Session(sess.ID).State(true))

	require.Len(t, runs.runs, 1)
	assert.Equal(t, sess.ID, runs.runs[0].Session)
	assert.Equal(t, 32, runs.runs[0].Width)
	assert.Len(t, runs.runs[0].Detections, 2)
}

func TestManager_DetectWithoutUpload(t *testing.T) {
	fm := &fakeModel{}
	m, runs := newTestManager(t, fm, true)
	sess := m.Session("")

	_, err := m.Detect(context.Background(), sess.ID)
	assert.ErrorIs(t, err, session.ErrNoUpload)
	assert.True(t, IsUserError(err))
	assert.Zero(t, fm.calls)
	assert.Empty(t, runs.runs)
}

func TestManager_ModelUnavailable(t *testing.T) {
	fm := &fakeModel{}
	m, _ := newTestManager(t, fm, false)
	sess := m.Session("")

	avail := m.Availability()
	assert.False(t, avail.Ready())
	assert.ErrorIs(t, avail.Err, ai.ErrModelNotFound)

	_, err := m.Detect(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ai.ErrModelUnavailable)

	_, err = m.Analyze(context.Background(), "a.jpg", jpegBytes(t, 8, 8))
	assert.ErrorIs(t, err, ai.ErrModelUnavailable)
	assert.Zero(t, fm.calls)
}

func TestManager_UploadRejectsBadFiles(t *testing.T) {
	m, _ := newTestManager(t, &fakeModel{}, true)
	sess := m.Session("")

	err := m.Upload(sess.ID, "clip.gif", jpegBytes(t, 4, 4))
	assert.ErrorIs(t, err, ai.ErrUnsupportedFormat)
	assert.True(t, IsUserError(err))

	err = m.Upload(sess.ID, "broken.png", []byte("not a png"))
	var decodeErr *ai.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.True(t, IsUserError(err))

	assert.Equal(t, session.NoFileSelected, m.Session(sess.ID).State(true))
}

func TestManager_DetectFailureKeepsUpload(t *testing.T) {
	fm := &fakeModel{err: errors.New("inference exploded")}
	m, runs := newTestManager(t, fm, true)
	sess := m.Session("")
	require.NoError(t, m.Upload(sess.ID, "a.png", jpegBytes(t, 8, 8)))

	_, err := m.Detect(context.Background(), sess.ID)
	require.Error(t, err)
	assert.False(t, IsUserError(err))
	assert.Equal(t, session.FileSelectedAwaitingAction, m.Session(sess.ID).State(true))
	assert.Empty(t, runs.runs)
}

func TestManager_Analyze(t *testing.T) {
	fm := &fakeModel{detections: []model.Detection{{ClassIndex: 5, ClassName: "bus", Confidence: 0.7}}}
	m, runs := newTestManager(t, fm, true)

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(20, 10, color.NRGBA{A: 255}), imaging.PNG))

	res, err := m.Analyze(context.Background(), "frame.png", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 20, res.Width)
	assert.Equal(t, 10, res.Height)
	assert.Equal(t, []string{"bus (confidence: 0.70)"}, res.Lines)
	assert.True(t, strings.HasPrefix(res.AnnotatedURI, "data:image/png;base64,"))
	require.Len(t, runs.runs, 1)
	assert.Equal(t, "api", runs.runs[0].Session)
}

func TestManager_AnnotatedSizeMustMatchInput(t *testing.T) {
	small := render.FromImage(imaging.New(16, 12, color.NRGBA{A: 255}), render.BGR)
	fm := &fakeModel{annotated: &small}
	m, runs := newTestManager(t, fm, true)
	sess := m.Session("")
	require.NoError(t, m.Upload(sess.ID, "street.jpg", jpegBytes(t, 32, 24)))

	_, err := m.Detect(context.Background(), sess.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "annotated image")
	assert.False(t, IsUserError(err))
	assert.Equal(t, session.FileSelectedAwaitingAction, m.Session(sess.ID).State(true))

	_, err = m.Analyze(context.Background(), "frame.jpg", jpegBytes(t, 32, 24))
	assert.Error(t, err)
	assert.Equal(t, 2, fm.calls)
	assert.Empty(t, runs.runs)
}

func TestManager_UploadRejectsOversizedImage(t *testing.T) {
	m, _ := newTestManager(t, &fakeModel{}, true)
	m.maxPixels = 100
	sess := m.Session("")

	err := m.Upload(sess.ID, "wide.jpg", jpegBytes(t, 32, 24))
	assert.ErrorIs(t, err, ai.ErrImageTooLarge)
	assert.True(t, IsUserError(err))
	assert.Equal(t, session.NoFileSelected, m.Session(sess.ID).State(true))
}
