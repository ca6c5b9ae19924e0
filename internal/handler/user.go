package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/service"
)

// UserHandler serves profiles, the viewer's settings, and the follow and
// block relations.
type UserHandler struct {
	profiles   *service.ProfileService
	graph      *service.GraphService
	moderation *service.ModerationService
	logger     *slog.Logger
}

func NewUserHandler(profiles *service.ProfileService, graph *service.GraphService, moderation *service.ModerationService, logger *slog.Logger) *UserHandler {
	return &UserHandler{profiles: profiles, graph: graph, moderation: moderation, logger: logger}
}

// HTTP: GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.profiles.Users(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Profile(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleEditProfile applies a partial update to the viewer. Fields left out
// of the body are not changed.
//
// HTTP: PATCH /api/profile
func (h *UserHandler) HandleEditProfile(w http.ResponseWriter, r *http.Request) {
	var patch service.ProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.profiles.EditProfile(r.Context(), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HTTP: PUT /api/profile/notifications
func (h *UserHandler) HandleNotificationPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs model.NotificationPreferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.profiles.UpdateNotificationPreferences(r.Context(), prefs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HTTP: PUT /api/profile/privacy
func (h *UserHandler) HandlePrivacy(w http.ResponseWriter, r *http.Request) {
	var settings model.PrivacySettings
	if err := decodeJSON(w, r, &settings); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.profiles.UpdatePrivacySettings(r.Context(), settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HTTP: GET /api/following
func (h *UserHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	users, err := h.graph.Following(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HTTP: POST /api/users/{id}/follow → 202 Accepted
func (h *UserHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	pending, err := h.graph.RequestFollow(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pending)
}

// HTTP: POST /api/users/{id}/unfollow → 202 Accepted
func (h *UserHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	pending, err := h.graph.RequestUnfollow(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pending)
}

// HTTP: GET /api/blocked
func (h *UserHandler) HandleBlocked(w http.ResponseWriter, r *http.Request) {
	users, err := h.moderation.Blocked(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HTTP: POST /api/users/{id}/block → 202 Accepted
func (h *UserHandler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	pending, err := h.moderation.RequestBlock(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pending)
}

// HandleUnblock takes effect immediately.
//
// HTTP: DELETE /api/users/{id}/block
func (h *UserHandler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	user, err := h.moderation.Unblock(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
