package handler

import (
	"net/http"

	"vehicledetect/internal/config"
	"vehicledetect/internal/service"
)

type healthResponse struct {
	Status    string `json:"status"`
	Backend   string `json:"backend"`
	ModelPath string `json:"model_path"`
	Classes   int    `json:"classes,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthHandler reports whether the model is loaded.
func HealthHandler(manager *service.Manager, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		avail := manager.Availability()
		resp := healthResponse{Status: "ok", Backend: cfg.Backend, ModelPath: avail.Path}

		if !avail.Ready() {
			resp.Status = "unavailable"
			resp.Error = avail.Err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}

		resp.Classes = len(avail.Model.Names())
		writeJSON(w, http.StatusOK, resp)
	}
}
