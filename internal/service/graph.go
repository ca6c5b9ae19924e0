package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/repository"
)

// GraphService manages who the viewer follows.
//
// Follow and Unfollow are the only operations that move follower/following
// counters. Counters are clamped at zero by the store.
type GraphService struct {
	session  *Session
	confirms *confirm.Registry
	rec      Recorder
	logger   *slog.Logger
}

func NewGraphService(session *Session, confirms *confirm.Registry, rec Recorder, logger *slog.Logger) *GraphService {
	return &GraphService{
		session:  session,
		confirms: confirms,
		rec:      recorderOrNop(rec),
		logger:   logger,
	}
}

func (s *GraphService) RequestFollow(ctx context.Context, targetID string) (confirm.Pending, error) {
	target, err := s.checkFollow(ctx, targetID)
	if err != nil {
		return confirm.Pending{}, err
	}
	return s.confirms.Propose(confirm.KindFollow, targetID,
		fmt.Sprintf("متابعة %s؟", target.Name),
		func(ctx context.Context) (any, error) { return s.Follow(ctx, targetID) },
	), nil
}

// Follow adds target to the followed set and returns the updated target.
func (s *GraphService) Follow(ctx context.Context, targetID string) (*model.User, error) {
	defer s.session.lock()()

	if _, err := s.checkFollow(ctx, targetID); err != nil {
		return nil, err
	}
	store := s.session.store
	if err := store.Graph().Follow(ctx, targetID); err != nil {
		return nil, fmt.Errorf("following %s: %w", targetID, err)
	}
	target, err := store.Users().AdjustCounters(ctx, targetID, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("updating followers: %w", err)
	}
	if _, err := store.Users().AdjustCounters(ctx, s.session.ViewerID(), 0, 1); err != nil {
		return nil, fmt.Errorf("updating following: %w", err)
	}

	s.rec.Action("user_followed")
	s.logger.Info("user followed", slog.String("user_id", targetID))
	return target, nil
}

func (s *GraphService) RequestUnfollow(ctx context.Context, targetID string) (confirm.Pending, error) {
	target, err := s.checkFollowed(ctx, targetID)
	if err != nil {
		return confirm.Pending{}, err
	}
	return s.confirms.Propose(confirm.KindUnfollow, targetID,
		fmt.Sprintf("إلغاء متابعة %s؟", target.Name),
		func(ctx context.Context) (any, error) { return s.Unfollow(ctx, targetID) },
	), nil
}

// Unfollow removes target from the followed set and returns the updated target.
func (s *GraphService) Unfollow(ctx context.Context, targetID string) (*model.User, error) {
	defer s.session.lock()()

	if _, err := s.checkFollowed(ctx, targetID); err != nil {
		return nil, err
	}
	target, err := unfollow(ctx, s.session.store, s.session.ViewerID(), targetID)
	if err != nil {
		return nil, err
	}

	s.rec.Action("user_unfollowed")
	s.logger.Info("user unfollowed", slog.String("user_id", targetID))
	return target, nil
}

// Following lists followed users in the order they were followed.
func (s *GraphService) Following(ctx context.Context) ([]model.User, error) {
	ids, err := s.session.store.Graph().Following(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing following: %w", err)
	}
	return s.session.usersByID(ctx, ids)
}

func (s *GraphService) checkFollow(ctx context.Context, targetID string) (*model.User, error) {
	if targetID == s.session.ViewerID() {
		return nil, apperror.ValidationFailed("user", "you cannot follow yourself")
	}
	target, err := s.session.store.Users().Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	graph := s.session.store.Graph()
	blocked, err := graph.IsBlocked(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperror.Forbidden("unblock this user before following them")
	}
	following, err := graph.IsFollowing(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if following {
		return nil, apperror.Conflict(fmt.Sprintf("already following %s", targetID))
	}
	return target, nil
}

func (s *GraphService) checkFollowed(ctx context.Context, targetID string) (*model.User, error) {
	target, err := s.session.store.Users().Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	following, err := s.session.store.Graph().IsFollowing(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !following {
		return nil, apperror.Conflict(fmt.Sprintf("not following %s", targetID))
	}
	return target, nil
}

// unfollow removes the edge and decrements both counters. The caller holds
// the session lock and has checked the edge exists.
func unfollow(ctx context.Context, store repository.Store, viewerID, targetID string) (*model.User, error) {
	if err := store.Graph().Unfollow(ctx, targetID); err != nil {
		return nil, fmt.Errorf("unfollowing %s: %w", targetID, err)
	}
	target, err := store.Users().AdjustCounters(ctx, targetID, -1, 0)
	if err != nil {
		return nil, fmt.Errorf("updating followers: %w", err)
	}
	if _, err := store.Users().AdjustCounters(ctx, viewerID, 0, -1); err != nil {
		return nil, fmt.Errorf("updating following: %w", err)
	}
	return target, nil
}
