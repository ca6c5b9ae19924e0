package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/service"
)

type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *slog.Logger
}

func NewNotificationHandler(notifications *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// NotificationsResponse carries the list and the badge count together.
type NotificationsResponse struct {
	Notifications []model.NotificationView `json:"notifications"`
	Unread        int                      `json:"unread"`
}

// HTTP: GET /api/notifications
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.notifications.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NotificationsResponse{Notifications: list, Unread: countUnread(list)})
}

// HandleOpen marks everything read and returns the list as it was, so the
// client can highlight what was new.
//
// HTTP: POST /api/notifications/open
func (h *NotificationHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	list, err := h.notifications.Open(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NotificationsResponse{Notifications: list, Unread: countUnread(list)})
}

// HTTP: POST /api/notifications/read
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAllRead(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": n})
}

func countUnread(list []model.NotificationView) int {
	n := 0
	for _, v := range list {
		if !v.Read {
			n++
		}
	}
	return n
}
