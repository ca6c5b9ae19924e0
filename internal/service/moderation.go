package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/model"
)

// ReportAcknowledgement is shown once a report is filed.
const ReportAcknowledgement = "تم استلام بلاغك وسنراجعه قريباً"

// BlockResult describes what a block changed besides the blocked set.
type BlockResult struct {
	User model.User `json:"user"`
	// Unfollowed is true when the viewer was following the user.
	Unfollowed bool `json:"unfollowed"`
	// Redirected is true when the viewer was on the user's profile or chat
	// and has been sent home.
	Redirected bool       `json:"redirected"`
	View       model.View `json:"view"`
}

// ModerationService handles blocking and reporting.
//
// Blocking hides a user from the viewer: their posts leave every feed, their
// conversation leaves the chat list, and their profile and chat can no longer
// be opened. Nothing is deleted, so unblocking restores everything.
type ModerationService struct {
	session  *Session
	confirms *confirm.Registry
	rec      Recorder
	now      func() time.Time
	logger   *slog.Logger
}

func NewModerationService(session *Session, confirms *confirm.Registry, rec Recorder, logger *slog.Logger) *ModerationService {
	return &ModerationService{
		session:  session,
		confirms: confirms,
		rec:      recorderOrNop(rec),
		now:      time.Now,
		logger:   logger,
	}
}

func (s *ModerationService) RequestBlock(ctx context.Context, targetID string) (confirm.Pending, error) {
	target, err := s.checkBlock(ctx, targetID)
	if err != nil {
		return confirm.Pending{}, err
	}
	return s.confirms.Propose(confirm.KindBlock, targetID,
		fmt.Sprintf("حظر %s؟", target.Name),
		func(ctx context.Context) (any, error) { return s.Block(ctx, targetID) },
	), nil
}

// Block adds target to the blocked set. A followed target is unfollowed, and
// a viewer looking at the target's profile or chat is sent home.
func (s *ModerationService) Block(ctx context.Context, targetID string) (*BlockResult, error) {
	defer s.session.lock()()

	target, err := s.checkBlock(ctx, targetID)
	if err != nil {
		return nil, err
	}
	store := s.session.store
	if err := store.Graph().Block(ctx, targetID); err != nil {
		return nil, fmt.Errorf("blocking %s: %w", targetID, err)
	}

	res := &BlockResult{User: *target}
	following, err := store.Graph().IsFollowing(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if following {
		updated, err := unfollow(ctx, store, s.session.ViewerID(), targetID)
		if err != nil {
			return nil, err
		}
		res.User = *updated
		res.Unfollowed = true
	}

	if s.session.View().About(targetID) {
		s.session.setView(model.View{Mode: model.ViewHome})
		res.Redirected = true
	}
	res.View = s.session.View()

	s.rec.Action("user_blocked")
	s.logger.Info("user blocked",
		slog.String("user_id", targetID),
		slog.Bool("unfollowed", res.Unfollowed),
		slog.Bool("redirected", res.Redirected),
	)
	return res, nil
}

// Unblock takes effect immediately; it is not confirmed.
func (s *ModerationService) Unblock(ctx context.Context, targetID string) (*model.User, error) {
	defer s.session.lock()()

	target, err := s.session.store.Users().Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.session.store.Graph().IsBlocked(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !blocked {
		return nil, apperror.Conflict(fmt.Sprintf("%s is not blocked", targetID))
	}
	if err := s.session.store.Graph().Unblock(ctx, targetID); err != nil {
		return nil, fmt.Errorf("unblocking %s: %w", targetID, err)
	}

	s.rec.Action("user_unblocked")
	s.logger.Info("user unblocked", slog.String("user_id", targetID))
	return target, nil
}

// Blocked lists blocked users in the order they were blocked.
func (s *ModerationService) Blocked(ctx context.Context) ([]model.User, error) {
	ids, err := s.session.store.Graph().Blocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing blocked: %w", err)
	}
	return s.session.usersByID(ctx, ids)
}

func (s *ModerationService) RequestReport(ctx context.Context, postID string) (confirm.Pending, error) {
	if _, err := s.session.store.Posts().Get(ctx, postID); err != nil {
		return confirm.Pending{}, err
	}
	return s.confirms.Propose(confirm.KindReport, postID,
		"الإبلاغ عن منشور؟ سيتم مراجعته من قبل المشرفين.",
		func(ctx context.Context) (any, error) { return s.Report(ctx, postID) },
	), nil
}

// Report files a report against a post. Nothing else changes.
func (s *ModerationService) Report(ctx context.Context, postID string) (*model.ReportReceipt, error) {
	if _, err := s.session.store.Posts().Get(ctx, postID); err != nil {
		return nil, err
	}
	s.rec.Action("post_reported")
	s.logger.Info("post reported", slog.String("post_id", postID))
	return &model.ReportReceipt{
		PostID:     postID,
		ReportedAt: s.now(),
		Message:    ReportAcknowledgement,
	}, nil
}

func (s *ModerationService) checkBlock(ctx context.Context, targetID string) (*model.User, error) {
	if targetID == s.session.ViewerID() {
		return nil, apperror.ValidationFailed("user", "you cannot block yourself")
	}
	target, err := s.session.store.Users().Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.session.store.Graph().IsBlocked(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperror.Conflict(fmt.Sprintf("%s is already blocked", targetID))
	}
	return target, nil
}
