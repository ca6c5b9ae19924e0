package model

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
)

// Validate rejects anything outside the three known types.
func (t NotificationType) Validate() error {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow:
		return nil
	}
	return fmt.Errorf("unknown notification type %q", string(t))
}

// Notification records something another user did. Read flips from false to
// true in bulk when the panel is opened.
type Notification struct {
	ID        string           `json:"id"`
	ActorID   string           `json:"actorId"`
	Type      NotificationType `json:"type"`
	Content   string           `json:"content,omitempty"`
	CreatedAt time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}

type NotificationView struct {
	ID        string           `json:"id"`
	User      User             `json:"user"`
	Type      NotificationType `json:"type"`
	Content   string           `json:"content,omitempty"`
	CreatedAt time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}
