package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"vehicledetect/internal/logger/loggertest"
)

func TestLocalOnly(t *testing.T) {
	h := LocalOnly(loggertest.New(t))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		remote string
		want   int
	}{
		{"127.0.0.1:51000", http.StatusNoContent},
		{"[::1]:51000", http.StatusNoContent},
		{"192.0.2.1:1234", http.StatusForbidden},
		{"10.0.0.7:80", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/logs/info", nil)
		req.RemoteAddr = tt.remote
		req.Header.Set("X-Forwarded-For", "127.0.0.1")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, tt.want, rec.Code, tt.remote)
	}
}
