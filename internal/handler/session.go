package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/service"
)

// SessionHandler serves the viewer, navigation, logout and the confirmation
// endpoints that every two-step action resolves through.
type SessionHandler struct {
	sessions *service.SessionService
	confirms *confirm.Registry
	logger   *slog.Logger
}

func NewSessionHandler(sessions *service.SessionService, confirms *confirm.Registry, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, confirms: confirms, logger: logger}
}

// SessionResponse is the viewer plus the screen they are on.
type SessionResponse struct {
	Viewer *model.User `json:"viewer"`
	View   model.View  `json:"view"`
}

// HTTP: GET /api/session
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.sessions.Viewer(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Viewer: viewer, View: h.sessions.View()})
}

type navigateRequest struct {
	Mode      string `json:"mode"`
	SubjectID string `json:"subjectId"`
}

// HTTP: PUT /api/session/view
// REQUEST BODY: {"mode": "user_profile", "subjectId": "u3"}
func (h *SessionHandler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	mode, err := model.ParseViewMode(req.Mode)
	if err != nil {
		writeError(w, apperror.ValidationFailed("mode", err.Error()))
		return
	}
	view, err := h.sessions.Navigate(r.Context(), mode, req.SubjectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HTTP: POST /api/session/logout → 202 Accepted
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	pending, err := h.sessions.RequestLogout(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pending)
}

// === CONFIRMATIONS ===
//
// A proposal answers 202 with {"id": ..., "state": "pending", ...}. The
// client then either confirms or cancels it by id:
//
//	POST /api/confirmations/{id}/confirm → 200 {"state": "committed", "result": ...}
//	POST /api/confirmations/{id}/cancel  → 200 {"state": "cancelled"}
//
// Resolving twice is 409, resolving after the deadline is 410.

// HTTP: GET /api/confirmations/{id}
func (h *SessionHandler) HandleGetConfirmation(w http.ResponseWriter, r *http.Request) {
	pending, err := h.confirms.Get(idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

// HTTP: POST /api/confirmations/{id}/confirm
func (h *SessionHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	out, err := h.confirms.Confirm(r.Context(), idParam(r))
	if err != nil {
		if out.State == confirm.StateFailed {
			h.logger.Warn("confirmed action failed",
				slog.String("id", out.ID),
				slog.String("kind", string(out.Kind)),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HTTP: POST /api/confirmations/{id}/cancel
func (h *SessionHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	out, err := h.confirms.Cancel(idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
