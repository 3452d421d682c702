package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/presenca/attendance-notify/internal/attend"
	"github.com/presenca/attendance-notify/internal/auth"
	"github.com/presenca/attendance-notify/internal/dispatch"
	"github.com/presenca/attendance-notify/internal/export"
	"github.com/presenca/attendance-notify/internal/model"
	"github.com/presenca/attendance-notify/internal/repo"
	"github.com/presenca/attendance-notify/internal/roster"
)

const maxUploadBytes = 10 << 20

// RosterStore is the spreadsheet-backed roster.
type RosterStore interface {
	Load() (*roster.Roster, error)
	Replace(data []byte) error
	Export() ([]byte, error)
}

// Dispatcher runs one notification batch.
type Dispatcher interface {
	Run(ctx context.Context, class, date string, absentees []model.Student, templateBody string) dispatch.BatchResult
}

// SessionConfig carries what Login needs to mint tokens.
type SessionConfig struct {
	SigningKey string
	Issuer     string
	TTL        time.Duration
}

type Handler struct {
	users     repo.UserRepository
	templates repo.TemplateRepository
	audit     repo.AuditRepository
	roster    RosterStore
	dispatch  Dispatcher
	session   SessionConfig
}

func NewHandler(
	users repo.UserRepository,
	templates repo.TemplateRepository,
	audit repo.AuditRepository,
	rosterStore RosterStore,
	dispatcher Dispatcher,
	session SessionConfig,
) *Handler {
	return &Handler{
		users:     users,
		templates: templates,
		audit:     audit,
		roster:    rosterStore,
		dispatch:  dispatcher,
		session:   session,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	id, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, expiresAt, err := auth.Issue(id.Username, h.session.Issuer, h.session.SigningKey, h.session.TTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt.Unix(),
		"username":   id.Username,
	})
}

func (h *Handler) Classes(w http.ResponseWriter, r *http.Request) {
	ros, err := h.roster.Load()
	if err != nil {
		writeRosterError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"classes": ros.Classes()})
}

func (h *Handler) Students(w http.ResponseWriter, r *http.Request) {
	class := r.PathValue("class")

	ros, err := h.roster.Load()
	if err != nil {
		writeRosterError(w, err)
		return
	}

	students := ros.StudentsIn(class)
	if len(students) == 0 {
		writeError(w, http.StatusNotFound, "unknown class: "+class)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"students": students})
}

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	body, err := h.templates.ActiveTemplate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"body": body})
}

func (h *Handler) PutTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	// No placeholder validation here: unresolved tokens surface
	// verbatim in rendered messages.
	if err := h.templates.SetTemplate(r.Context(), req.Body); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"body": req.Body})
}

// SendAttendance starts a session for the submitted class and date,
// applies the marks, and dispatches notifications to the absentees'
// guardians.
func (h *Handler) SendAttendance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Class   string          `json:"class"`
		Date    string          `json:"date"`
		Present map[string]bool `json:"present"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Class == "" || req.Date == "" {
		writeError(w, http.StatusBadRequest, "class and date are required")
		return
	}

	ros, err := h.roster.Load()
	if err != nil {
		writeRosterError(w, err)
		return
	}
	students := ros.StudentsIn(req.Class)
	if len(students) == 0 {
		writeError(w, http.StatusNotFound, "unknown class: "+req.Class)
		return
	}

	sess, err := attend.Start(req.Class, req.Date, students)
	if err != nil {
		if errors.Is(err, attend.ErrWeekend) || errors.Is(err, attend.ErrInvalidDate) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for name, present := range req.Present {
		sess.Mark(name, present)
	}

	templateBody, err := h.templates.ActiveTemplate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := h.dispatch.Run(r.Context(), sess.Class, sess.Date, sess.Absentees(), templateBody)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	class := r.URL.Query().Get("class")
	if date == "" || class == "" {
		writeError(w, http.StatusBadRequest, "date and class are required")
		return
	}

	items, err := h.audit.Query(r.Context(), date, class)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) ExportLogs(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	class := r.URL.Query().Get("class")
	if date == "" || class == "" {
		writeError(w, http.StatusBadRequest, "date and class are required")
		return
	}

	items, err := h.audit.Query(r.Context(), date, class)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusNotFound, "no logs for the given date and class")
		return
	}

	data, err := export.Logs(items)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeXLSX(w, export.Filename(class, date), data)
}

func (h *Handler) ImportRoster(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty upload")
		return
	}

	if err := h.roster.Replace(data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) ExportRoster(w http.ResponseWriter, r *http.Request) {
	data, err := h.roster.Export()
	if err != nil {
		writeRosterError(w, err)
		return
	}
	writeXLSX(w, "alunos_exportados.xlsx", data)
}

func writeRosterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, roster.ErrSourceMissing),
		errors.Is(err, roster.ErrMissingColumn),
		errors.Is(err, roster.ErrEmptyRoster):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeXLSX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
