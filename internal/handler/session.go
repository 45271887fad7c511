package handler

import (
	"net/http"
	"time"

	"vehicledetect/internal/service"
	"vehicledetect/internal/service/session"
)

// SessionCookie carries the page session id.
const SessionCookie = "vd_session"

// currentSession resolves the cookie and reissues it when a new session had
// to be started.
func currentSession(w http.ResponseWriter, r *http.Request, manager *service.Manager, ttl time.Duration) session.Session {
	id := ""
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		id = cookie.Value
	}

	sess := manager.Session(id)
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}
