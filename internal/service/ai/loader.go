package ai

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"go.uber.org/multierr"

	"vehicledetect/internal/logger"
)

type outcome struct {
	model Model
	err   error
}

// Loader opens models once per literal path string and remembers the
// outcome, failures included.
type Loader struct {
	open   Opener
	logger *logger.Logger

	mu    sync.Mutex
	cache map[string]outcome
}

func NewLoader(open Opener, logger *logger.Logger) *Loader {
	return &Loader{
		open:   open,
		logger: logger,
		cache:  make(map[string]outcome),
	}
}

// Load returns the model for path, opening it on first use. A path that
// failed once keeps failing with the same error until the process restarts.
func (l *Loader) Load(path string) (Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if o, ok := l.cache[path]; ok {
		return o.model, o.err
	}

	m, err := l.openModel(path)
	l.cache[path] = outcome{model: m, err: err}
	if err != nil {
		l.logger.Error("Model unavailable: %v", err)
		return nil, err
	}

	l.logger.Info("Detection model loaded from %s (%d classes)", path, len(m.Names()))
	return m, nil
}

func (l *Loader) openModel(path string) (Model, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{Path: path}
	}

	m, err := l.open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if m == nil {
		return nil, &LoadError{Path: path, Err: errors.New("backend returned no model")}
	}
	return m, nil
}

// Availability loads path and reports the outcome for the page.
func (l *Loader) Availability(path string) Availability {
	m, err := l.Load(path)
	return Availability{Path: path, Model: m, Err: err}
}

// Close releases every cached model.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs error
	for path, o := range l.cache {
		if o.model != nil {
			errs = multierr.Append(errs, o.model.Close())
		}
		delete(l.cache, path)
	}
	return errs
}
