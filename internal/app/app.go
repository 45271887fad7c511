package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"vehicledetect/internal/config"
	"vehicledetect/internal/logger"
	"vehicledetect/internal/repository"
	"vehicledetect/internal/repository/sqlite"
	"vehicledetect/internal/route"
	"vehicledetect/internal/service"
	"vehicledetect/internal/service/ai"
	"vehicledetect/internal/service/ai/onnx"
	"vehicledetect/internal/service/ai/opencv"
	"vehicledetect/internal/service/session"
	"vehicledetect/internal/service/websocket"
	"vehicledetect/internal/web"
	"vehicledetect/internal/yolo"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	loader     *ai.Loader
	sessions   *session.Store
	hubService *websocket.HubService
	db         *sqlite.DB
	manager    *service.Manager
	server     *http.Server
}

// NewApp builds every service and loads the model once, before the first
// request is served.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	loader := ai.NewLoader(NewOpener(cfg, log), log)
	if avail := loader.Availability(cfg.ModelPath); avail.Ready() {
		log.Info("✅ Model loaded successfully from: %s (%d classes)", avail.Path, len(avail.Model.Names()))
	}

	var db *sqlite.DB
	var runs repository.RunRepository
	if cfg.HistoryDB != "" {
		var err error
		db, err = sqlite.New(cfg.HistoryDB)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to open run history: %w", err), loader.Close())
		}
		runs = sqlite.NewRunRepository(db)
		log.Info("Run history: %s", cfg.HistoryDB)
	}

	sessions := session.NewStore(cfg.SessionTTL, log)
	hub := websocket.NewHubService(log)
	manager := service.NewManager(cfg, loader, sessions, hub, runs, log)

	page, err := web.NewPage()
	if err != nil {
		closeErr := loader.Close()
		if db != nil {
			closeErr = multierr.Append(closeErr, db.Close())
		}
		return nil, multierr.Append(fmt.Errorf("failed to parse page template: %w", err), closeErr)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           route.SetupRoutes(manager, cfg, page, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		config:     cfg,
		logger:     log,
		loader:     loader,
		sessions:   sessions,
		hubService: hub,
		db:         db,
		manager:    manager,
		server:     server,
	}, nil
}

// NewOpener picks the inference backend named in the config. Setup problems
// surface as load errors so the page can show them.
func NewOpener(cfg *config.Config, log *logger.Logger) ai.Opener {
	params := yolo.Params{
		ConfThreshold: cfg.ConfThreshold,
		IouThreshold:  cfg.IouThreshold,
		MaxDetections: cfg.MaxDetections,
	}
	names := func(path string) []string {
		return ai.ResolveNames(log, ai.FileNames(cfg.NamesPath), onnx.MetadataNames(path))
	}

	switch cfg.Backend {
	case config.BackendONNXRuntime:
		if err := onnx.Init(cfg.OnnxRuntimeLibrary); err != nil {
			return failingOpener(err)
		}
		return onnx.Opener(onnx.Options{Params: params, Names: names}, log)

	case config.BackendOpenCV:
		// The runtime is optional here; it only supplies embedded class names.
		if cfg.OnnxRuntimeLibrary != "" {
			if err := onnx.Init(cfg.OnnxRuntimeLibrary); err != nil {
				log.Warning("Class names from model metadata unavailable: %v", err)
			}
		}
		return opencv.Opener(opencv.Options{InputSize: opencv.DefaultInputSize, Params: params, Names: names}, log)

	default:
		return failingOpener(fmt.Errorf("unknown detector backend %q", cfg.Backend))
	}
}

func failingOpener(err error) ai.Opener {
	return func(string) (ai.Model, error) {
		return nil, err
	}
}

// Run serves until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.hubService.Run(ctx) })
	g.Go(func() error { return a.sessions.Run(ctx, sweepInterval) })
	g.Go(func() error {
		a.logger.Info("🚀 Vehicle detection server")
		a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
		a.logger.Info("🤖 Model: %s (%s)", a.config.ModelPath, a.config.Backend)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases the model, the journal and the ONNX environment.
func (a *App) Close() error {
	err := a.loader.Close()
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	return multierr.Append(err, onnx.Shutdown())
}
