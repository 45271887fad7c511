package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"vehicledetect/internal/config"
	"vehicledetect/internal/logger"
	"vehicledetect/internal/service"
	hub "vehicledetect/internal/service/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket for same-host pages.
var Upgrader = websocket.Upgrader{}

// ProgressWebsocketHandler subscribes the page to detection events for its
// session until the browser goes away.
func ProgressWebsocketHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(w, r, manager, cfg.SessionTTL)

		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		client := &hub.Client{Session: sess.ID, Conn: connection}
		manager.GetWebsocketService().Register(client)
		defer manager.GetWebsocketService().Unregister(client)

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Warning("Viewer disconnected with error: %v", err)
				}
				break
			}
		}
	}
}
