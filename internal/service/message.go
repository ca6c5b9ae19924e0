package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/realtime"
)

// MessageService handles direct messages between the viewer and other users.
type MessageService struct {
	session   *Session
	replier   Replier
	publisher Publisher
	rec       Recorder
	logger    *slog.Logger
}

func NewMessageService(session *Session, replier Replier, publisher Publisher, rec Recorder, logger *slog.Logger) *MessageService {
	if replier == nil {
		replier = NopReplier{}
	}
	return &MessageService{
		session:   session,
		replier:   replier,
		publisher: publisherOrNop(publisher),
		rec:       recorderOrNop(rec),
		logger:    logger,
	}
}

// Thread returns the messages exchanged with otherID, oldest first.
func (s *MessageService) Thread(ctx context.Context, otherID string) ([]model.Message, error) {
	if _, err := s.counterpart(ctx, otherID); err != nil {
		return nil, err
	}
	all, err := s.session.store.Messages().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	viewer := s.session.ViewerID()
	thread := make([]model.Message, 0)
	for _, m := range all {
		if m.Involves(viewer, otherID) {
			thread = append(thread, m)
		}
	}
	return thread, nil
}

// Send appends a message from the viewer to otherID.
func (s *MessageService) Send(ctx context.Context, otherID, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "message text is required")
	}
	if _, err := s.counterpart(ctx, otherID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		SenderID:   s.session.ViewerID(),
		ReceiverID: otherID,
		Content:    content,
	}
	if err := s.session.store.Messages().Append(ctx, msg); err != nil {
		s.logger.Error("failed to send message", slog.String("error", err.Error()))
		return nil, fmt.Errorf("sending message: %w", err)
	}

	s.rec.Action("message_sent")
	s.logger.Info("message sent", slog.String("id", msg.ID), slog.String("to", otherID))
	s.publisher.Publish(realtime.EventMessageCreated, *msg)
	s.replier.Schedule(*msg)
	return msg, nil
}

// Conversations splits known users into those the viewer has talked to
// (newest conversation first) and suggestions to start one with. Blocked
// users appear in neither list.
func (s *MessageService) Conversations(ctx context.Context) (*model.ConversationList, error) {
	users, err := s.session.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	blocked, err := s.session.blockedSet(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.session.store.Messages().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	viewer := s.session.ViewerID()
	// Messages are in append order, so the last one seen per counterpart wins.
	last := make(map[string]model.Message)
	for _, m := range messages {
		if m.SenderID != viewer && m.ReceiverID != viewer {
			continue
		}
		last[m.Counterpart(viewer)] = m
	}

	list := &model.ConversationList{
		Active:    []model.Conversation{},
		Suggested: []model.User{},
	}
	for _, u := range users {
		if u.ID == viewer || blocked[u.ID] {
			continue
		}
		if m, ok := last[u.ID]; ok {
			list.Active = append(list.Active, model.Conversation{User: u, LastMessage: m})
		} else {
			list.Suggested = append(list.Suggested, u)
		}
	}
	sort.SliceStable(list.Active, func(i, j int) bool {
		return list.Active[i].LastMessage.CreatedAt.After(list.Active[j].LastMessage.CreatedAt)
	})
	return list, nil
}

func (s *MessageService) counterpart(ctx context.Context, otherID string) (*model.User, error) {
	if otherID == s.session.ViewerID() {
		return nil, apperror.ValidationFailed("user", "you cannot message yourself")
	}
	other, err := s.session.store.Users().Get(ctx, otherID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.session.store.Graph().IsBlocked(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperror.Forbidden("you blocked this user")
	}
	return other, nil
}
