// Package session keeps per-browser upload and result state.
package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"vehicledetect/internal/logger"
	"vehicledetect/internal/model"
)

var (
	ErrNoUpload       = errors.New("no image has been uploaded")
	ErrUploadReplaced = errors.New("upload was replaced while detection was running")
)

type Upload struct {
	Filename   string
	Data       []byte
	Image      image.Image
	PreviewURI string
	UploadedAt time.Time
}

// Outcome is the rendered result of one detection run.
type Outcome struct {
	AnnotatedURI string
	Lines        []string
	Detections   []model.Detection
	Duration     time.Duration
}

type Session struct {
	ID       string
	Upload   *Upload
	Outcome  *Outcome
	LastSeen time.Time
}

// State derives the page state. Without a model nothing else matters.
func (s Session) State(modelReady bool) State {
	switch {
	case !modelReady:
		return Unavailable
	case s.Upload == nil:
		return NoFileSelected
	case s.Outcome == nil:
		return FileSelectedAwaitingAction
	default:
		return ResultsShown
	}
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

func NewStore(ttl time.Duration, logger *logger.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Ensure returns the session for id, starting a new one when id is empty,
// unknown or expired.
func (s *Store) Ensure(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok && !s.expired(sess) {
		sess.LastSeen = s.now()
		return *sess
	}

	sess := &Session{ID: uuid.NewString(), LastSeen: s.now()}
	s.sessions[sess.ID] = sess
	return *sess
}

// SetUpload stores a new upload and drops any previous result.
func (s *Store) SetUpload(id string, up *Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(id)
	sess.Upload = up
	sess.Outcome = nil
}

// Upload returns the image waiting for detection.
func (s *Store) Upload(id string) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.Upload == nil {
		return nil, ErrNoUpload
	}
	sess.LastSeen = s.now()
	return sess.Upload, nil
}

// SetOutcome attaches a result to the upload it was computed from.
func (s *Store) SetOutcome(id string, from *Upload, out *Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.Upload == nil {
		return ErrNoUpload
	}
	if sess.Upload != from {
		return ErrUploadReplaced
	}
	sess.Outcome = out
	sess.LastSeen = s.now()
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops expired sessions and reports how many went.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("🧹 Removed %d expired session(s), %d active", n, s.Len())
			}
		}
	}
}

func (s *Store) lookup(id string) *Session {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id}
		if id == "" {
			sess.ID = uuid.NewString()
		}
		s.sessions[sess.ID] = sess
	}
	sess.LastSeen = s.now()
	return sess
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.LastSeen) > s.ttl
}
