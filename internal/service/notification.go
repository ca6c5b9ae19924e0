package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/realtime"
)

// NotificationService reads and acknowledges the viewer's notifications.
// Every stored notification is listed and counted, including those from
// users the viewer has since blocked.
type NotificationService struct {
	session   *Session
	publisher Publisher
	logger    *slog.Logger
}

func NewNotificationService(session *Session, publisher Publisher, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		session:   session,
		publisher: publisherOrNop(publisher),
		logger:    logger,
	}
}

// List returns notifications newest first.
func (s *NotificationService) List(ctx context.Context) ([]model.NotificationView, error) {
	stored, err := s.session.store.Notifications().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	users, err := s.session.userIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.NotificationView, 0, len(stored))
	for _, n := range stored {
		out = append(out, model.NotificationView{
			ID:        n.ID,
			User:      lookup(users, n.ActorID),
			Type:      n.Type,
			Content:   n.Content,
			CreatedAt: n.CreatedAt,
			Read:      n.Read,
		})
	}
	return out, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	list, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, v := range list {
		if !v.Read {
			n++
		}
	}
	return n, nil
}

// Open is what happens when the panel is shown: every notification is marked
// read, and the list is returned as it was before, so the ones that were
// unread can still be highlighted.
func (s *NotificationService) Open(ctx context.Context) ([]model.NotificationView, error) {
	defer s.session.lock()()

	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.markAllRead(ctx); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkAllRead returns how many notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context) (int, error) {
	defer s.session.lock()()
	return s.markAllRead(ctx)
}

func (s *NotificationService) markAllRead(ctx context.Context) (int, error) {
	n, err := s.session.store.Notifications().MarkAllRead(ctx)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	if n > 0 {
		s.logger.Debug("notifications read", slog.Int("count", n))
		s.publisher.Publish(realtime.EventNotificationsRead, map[string]int{"count": n})
	}
	return n, nil
}
