package route

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"

	"vehicledetect/internal/config"
	"vehicledetect/internal/handler"
	"vehicledetect/internal/logger"
	"vehicledetect/internal/middleware"
	"vehicledetect/internal/service"
	"vehicledetect/internal/web"
)

// SetupRoutes registers the page, API, websocket, log and static routes.
// POST routes are rate limited per client IP.
func SetupRoutes(manager *service.Manager, cfg *config.Config, page *web.Page, logger *logger.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.Recover(logger), middleware.Logging(logger))

	limited := func(h http.HandlerFunc) http.Handler {
		if cfg.RateLimitPerMinute <= 0 {
			return h
		}
		return httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute)(h)
	}

	// Static files
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", web.Static()))

	// Page
	router.HandleFunc("/", handler.IndexHandler(manager, cfg, page, logger)).Methods(http.MethodGet)
	router.Handle("/upload", limited(handler.UploadHandler(manager, cfg, page, logger))).Methods(http.MethodPost)
	router.Handle("/detect", limited(handler.DetectHandler(manager, cfg, page, logger))).Methods(http.MethodPost)
	router.HandleFunc("/ws", handler.ProgressWebsocketHandler(manager, cfg, logger)).Methods(http.MethodGet)

	// API endpoints
	api := router.PathPrefix("/api").Subrouter()
	api.Handle("/detect", limited(handler.DetectAPIHandler(manager, cfg, logger))).Methods(http.MethodPost)
	api.HandleFunc("/history", handler.HistoryHandler(manager, logger)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", handler.HealthHandler(manager, cfg)).Methods(http.MethodGet)

	// Log endpoints, loopback only unless LOGS_ALLOW_REMOTE is set
	logs := router.PathPrefix("/logs").Subrouter()
	if !cfg.LogsAllowRemote {
		logs.Use(middleware.LocalOnly(logger))
	}
	logs.HandleFunc("/{level:info|warning|error}", handler.ShowLogsHandler(logger)).Methods(http.MethodGet)
	logs.Handle("/{level:info|warning|error}/clear", limited(handler.ClearLogsHandler(logger))).Methods(http.MethodPost)

	return router
}
