package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicledetect/internal/logger/loggertest"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *clock) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(ttl, loggertest.New(t))
	s.now = c.now
	return s, c
}

func TestSession_StateTransitions(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	sess := s.Ensure("")
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, NoFileSelected, sess.State(true))
	assert.Equal(t, Unavailable, sess.State(false))

	first := &Upload{Filename: "a.jpg"}
	s.SetUpload(sess.ID, first)
	assert.Equal(t, FileSelectedAwaitingAction, s.Ensure(sess.ID).State(true))

	require.NoError(t, s.SetOutcome(sess.ID, first, &Outcome{Lines: []string{"car (confidence: 0.91)"}}))
	assert.Equal(t, ResultsShown, s.Ensure(sess.ID).State(true))

	// A new upload from the results page goes back to awaiting action.
	s.SetUpload(sess.ID, &Upload{Filename: "b.png"})
	got := s.Ensure(sess.ID)
	assert.Equal(t, FileSelectedAwaitingAction, got.State(true))
	assert.Nil(t, got.Outcome)
	assert.Equal(t, Unavailable, got.State(false))
}

func TestStore_DetectWithoutUpload(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	sess := s.Ensure("")

	_, err := s.Upload(sess.ID)
	assert.ErrorIs(t, err, ErrNoUpload)

	err = s.SetOutcome(sess.ID, &Upload{}, &Outcome{})
	assert.ErrorIs(t, err, ErrNoUpload)
	assert.Equal(t, NoFileSelected, s.Ensure(sess.ID).State(true))

	_, err = s.Upload("missing")
	assert.ErrorIs(t, err, ErrNoUpload)
}

func TestStore_OutcomeForReplacedUpload(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	sess := s.Ensure("")

	old := &Upload{Filename: "old.jpg"}
	s.SetUpload(sess.ID, old)
	s.SetUpload(sess.ID, &Upload{Filename: "new.jpg"})

	err := s.SetOutcome(sess.ID, old, &Outcome{})
	assert.ErrorIs(t, err, ErrUploadReplaced)
	assert.Equal(t, FileSelectedAwaitingAction, s.Ensure(sess.ID).State(true))
}

func TestStore_EnsureReplacesExpiredSession(t *testing.T) {
	s, c := newTestStore(t, time.Minute)
	sess := s.Ensure("")

	c.advance(30 * time.Second)
	assert.Equal(t, sess.ID, s.Ensure(sess.ID).ID)

	c.advance(2 * time.Minute)
	assert.NotEqual(t, sess.ID, s.Ensure(sess.ID).ID)
}

func TestStore_Sweep(t *testing.T) {
	s, c := newTestStore(t, time.Minute)
	stale := s.Ensure("")
	c.advance(45 * time.Second)
	fresh := s.Ensure("")
	c.advance(30 * time.Second)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, fresh.ID, s.Ensure(fresh.ID).ID)
	assert.NotEqual(t, stale.ID, s.Ensure(stale.ID).ID)
}

func TestStore_RunStopsWithContext(t *testing.T) {
	s, _ := newTestStore(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 5*time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
