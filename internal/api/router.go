package api

import (
	"net/http"

	"github.com/presenca/attendance-notify/internal/auth"
)

// Router wires the public endpoints (login, health) and the
// session-protected surface. More specific patterns win, so login and
// health stay outside the auth wrapper.
func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/login", h.Login)
	mux.HandleFunc("GET /v1/health", h.Health)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /v1/classes", h.Classes)
	protected.HandleFunc("GET /v1/classes/{class}/students", h.Students)
	protected.HandleFunc("GET /v1/template", h.GetTemplate)
	protected.HandleFunc("PUT /v1/template", h.PutTemplate)
	protected.HandleFunc("POST /v1/attendance/send", h.SendAttendance)
	protected.HandleFunc("GET /v1/logs", h.Logs)
	protected.HandleFunc("GET /v1/logs/export", h.ExportLogs)
	protected.HandleFunc("POST /v1/roster/import", h.ImportRoster)
	protected.HandleFunc("GET /v1/roster/export", h.ExportRoster)

	mux.Handle("/v1/", auth.Require(h.session.SigningKey, h.session.Issuer, protected))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("attendance-notify"))
	})

	return mux
}
