package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/feed"
	"github.com/sakif/meydan/internal/model"
)

// FeedService loads and hydrates posts, then hands them to feed.Assembler.
type FeedService struct {
	session   *Session
	assembler *feed.Assembler
	logger    *slog.Logger
}

func NewFeedService(session *Session, assembler *feed.Assembler, logger *slog.Logger) *FeedService {
	return &FeedService{session: session, assembler: assembler, logger: logger}
}

// Feed returns the posts visible for q, newest first.
//
// For ViewProfile the subject is always the viewer. ViewUserProfile needs a
// subject that exists. Other modes show the home feed.
func (s *FeedService) Feed(ctx context.Context, q feed.Query) ([]model.PostView, error) {
	switch q.Mode {
	case "":
		q.Mode = model.ViewHome
	case model.ViewProfile:
		q.SubjectID = s.session.ViewerID()
	case model.ViewUserProfile:
		if q.SubjectID == "" {
			return nil, apperror.ValidationFailed("user", "a user is required for this view")
		}
		if _, err := s.session.store.Users().Get(ctx, q.SubjectID); err != nil {
			return nil, err
		}
	}
	if q.Field == "" {
		q.Field = feed.FieldContent
	}

	posts, err := s.session.store.Posts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	users, err := s.session.userIndex(ctx)
	if err != nil {
		return nil, err
	}
	blocked, err := s.session.blockedSet(ctx)
	if err != nil {
		return nil, err
	}

	out := s.assembler.Assemble(hydratePosts(posts, posts, users), blocked, q)
	s.logger.Debug("feed assembled",
		slog.String("mode", string(q.Mode)),
		slog.Int("total", len(posts)),
		slog.Int("visible", len(out)),
	)
	return out, nil
}
