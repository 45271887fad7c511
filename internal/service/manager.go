// Package service wires the model, the session store, the progress hub and
// the run journal into the two page actions: upload and detect.
package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/samber/lo"

	"vehicledetect/internal/config"
	"vehicledetect/internal/logger"
	"vehicledetect/internal/model"
	"vehicledetect/internal/render"
	"vehicledetect/internal/repository"
	"vehicledetect/internal/service/ai"
	"vehicledetect/internal/service/session"
	"vehicledetect/internal/service/websocket"
)

type Manager struct {
	modelPath string
	maxPixels int64
	loader    *ai.Loader
	sessions  *session.Store
	hub       *websocket.HubService
	runs      repository.RunRepository // nil when the journal is disabled
	logger    *logger.Logger
}

// Analysis is a detection result that is not tied to a page session.
type Analysis struct {
	session.Outcome
	Width  int
	Height int
}

func NewManager(cfg *config.Config, loader *ai.Loader, sessions *session.Store, hub *websocket.HubService, runs repository.RunRepository, logger *logger.Logger) *Manager {
	return &Manager{
		modelPath: cfg.ModelPath,
		maxPixels: cfg.MaxPixels,
		loader:    loader,
		sessions:  sessions,
		hub:       hub,
		runs:      runs,
		logger:    logger,
	}
}

// Availability reports whether the configured model could be loaded.
func (m *Manager) Availability() ai.Availability {
	return m.loader.Availability(m.modelPath)
}

func (m *Manager) Session(id string) session.Session {
	return m.sessions.Ensure(id)
}

func (m *Manager) Journal() repository.RunRepository {
	return m.runs
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.hub
}

// Upload decodes the file and makes it the session's current image.
func (m *Manager) Upload(sessionID, filename string, data []byte) error {
	img, err := ai.DecodeUpload(filename, data, m.maxPixels)
	if err != nil {
		m.logger.Warning("Rejected upload %q: %v", filename, err)
		return err
	}

	preview, err := render.DataURI(img, displayFormat(filename))
	if err != nil {
		return fmt.Errorf("failed to prepare preview: %w", err)
	}

	m.sessions.SetUpload(sessionID, &session.Upload{
		Filename:   filename,
		Data:       data,
		Image:      img,
		PreviewURI: preview,
		UploadedAt: time.Now(),
	})
	b := img.Bounds()
	m.logger.Info("📷 Session %s: uploaded %s (%dx%d)", sessionID, filename, b.Dx(), b.Dy())
	return nil
}

// Detect runs the model on the session's current upload and stores the
// rendered result.
func (m *Manager) Detect(ctx context.Context, sessionID string) (*session.Outcome, error) {
	avail := m.Availability()
	if !avail.Ready() {
		return nil, ai.ErrModelUnavailable
	}

	up, err := m.sessions.Upload(sessionID)
	if err != nil {
		return nil, err
	}

	m.hub.Publish(sessionID, websocket.Event{Type: websocket.EventStarted, Filename: up.Filename})

	out, err := m.run(ctx, avail.Model, up.Filename, up.Image)
	if err != nil {
		m.logger.Error("Detection failed for %s: %v", up.Filename, err)
		m.hub.Publish(sessionID, websocket.Event{Type: websocket.EventFailed, Filename: up.Filename, Error: err.Error()})
		return nil, err
	}

	if err := m.sessions.SetOutcome(sessionID, up, out); err != nil {
		m.hub.Publish(sessionID, websocket.Event{Type: websocket.EventFailed, Filename: up.Filename, Error: err.Error()})
		return nil, err
	}

	m.record(sessionID, up.Filename, up.Image.Bounds(), out)
	m.hub.Publish(sessionID, websocket.Event{
		Type:       websocket.EventFinished,
		Filename:   up.Filename,
		Detections: len(out.Detections),
		DurationMs: out.Duration.Milliseconds(),
	})
	return out, nil
}

// Analyze decodes and detects in one step for API clients.
func (m *Manager) Analyze(ctx context.Context, filename string, data []byte) (*Analysis, error) {
	avail := m.Availability()
	if !avail.Ready() {
		return nil, ai.ErrModelUnavailable
	}

	img, err := ai.DecodeUpload(filename, data, m.maxPixels)
	if err != nil {
		return nil, err
	}

	out, err := m.run(ctx, avail.Model, filename, img)
	if err != nil {
		m.logger.Error("Detection failed for %s: %v", filename, err)
		return nil, err
	}

	b := img.Bounds()
	m.record("api", filename, b, out)
	return &Analysis{Outcome: *out, Width: b.Dx(), Height: b.Dy()}, nil
}

func (m *Manager) run(ctx context.Context, mdl ai.Model, filename string, img image.Image) (*session.Outcome, error) {
	start := time.Now()
	res, err := mdl.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	elapsed := time.Since(start)

	if res.Annotated.Bounds().Size() != img.Bounds().Size() {
		return nil, fmt.Errorf("annotated image is %v, input is %v", res.Annotated.Bounds().Size(), img.Bounds().Size())
	}

	display, err := render.Display(res.Annotated)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare annotated image: %w", err)
	}

	annotated, err := render.DataURI(display, displayFormat(filename))
	if err != nil {
		return nil, err
	}

	m.logger.Info("🎯 %s: %d object(s) in %v", filename, len(res.Detections), elapsed)
	return &session.Outcome{
		AnnotatedURI: annotated,
		Lines: lo.Map(res.Detections, func(d model.Detection, _ int) string {
			return render.DetectionLine(d)
		}),
		Detections: res.Detections,
		Duration:   elapsed,
	}, nil
}

// record writes the run to the journal; failures are only logged.
func (m *Manager) record(sessionID, filename string, bounds image.Rectangle, out *session.Outcome) {
	if m.runs == nil {
		return
	}

	run := &model.Run{
		Session:    sessionID,
		Filename:   filename,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Duration:   out.Duration,
		CreatedAt:  time.Now(),
		Detections: out.Detections,
	}
	if _, err := m.runs.Insert(run); err != nil {
		m.logger.Error("Failed to save run for %s: %v", filename, err)
	}
}

// IsUserError reports errors caused by the request rather than the server.
func IsUserError(err error) bool {
	var decodeErr *ai.DecodeError
	return errors.Is(err, ai.ErrUnsupportedFormat) ||
		errors.Is(err, session.ErrNoUpload) ||
		errors.Is(err, session.ErrUploadReplaced) ||
		errors.As(err, &decodeErr)
}

func displayFormat(filename string) imaging.Format {
	if f, err := imaging.FormatFromFilename(filename); err == nil && f == imaging.PNG {
		return imaging.PNG
	}
	return imaging.JPEG
}
