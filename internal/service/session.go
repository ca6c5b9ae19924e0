package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/realtime"
)

// SessionService exposes the viewer, navigation between screens, and logout.
type SessionService struct {
	session   *Session
	confirms  *confirm.Registry
	reseed    func(ctx context.Context) error
	replier   Replier
	publisher Publisher
	logger    *slog.Logger
}

// NewSessionService creates a SessionService. reseed restores the store to
// its initial contents on logout.
func NewSessionService(session *Session, confirms *confirm.Registry, reseed func(ctx context.Context) error, replier Replier, publisher Publisher, logger *slog.Logger) *SessionService {
	if replier == nil {
		replier = NopReplier{}
	}
	return &SessionService{
		session:   session,
		confirms:  confirms,
		reseed:    reseed,
		replier:   replier,
		publisher: publisherOrNop(publisher),
		logger:    logger,
	}
}

func (s *SessionService) Viewer(ctx context.Context) (*model.User, error) {
	return s.session.store.Users().Get(ctx, s.session.ViewerID())
}

func (s *SessionService) View() model.View {
	return s.session.View()
}

// Navigate moves the viewer to another screen.
//
// Opening one's own profile through user_profile lands on profile. A chat
// without a subject is the conversation list. Profiles and chats of blocked
// users cannot be opened.
func (s *SessionService) Navigate(ctx context.Context, mode model.ViewMode, subjectID string) (model.View, error) {
	view := model.View{Mode: mode}

	switch mode {
	case model.ViewUserProfile, model.ViewChat:
		if subjectID == "" {
			if mode == model.ViewUserProfile {
				return model.View{}, apperror.ValidationFailed("subjectId", "a user is required for this view")
			}
			break
		}
		if subjectID == s.session.ViewerID() {
			if mode == model.ViewChat {
				return model.View{}, apperror.ValidationFailed("subjectId", "you cannot chat with yourself")
			}
			view.Mode = model.ViewProfile
			break
		}
		if _, err := s.session.store.Users().Get(ctx, subjectID); err != nil {
			return model.View{}, err
		}
		blocked, err := s.session.store.Graph().IsBlocked(ctx, subjectID)
		if err != nil {
			return model.View{}, err
		}
		if blocked {
			return model.View{}, apperror.Forbidden("you blocked this user")
		}
		view.SubjectID = subjectID
	case model.ViewHome, model.ViewProfile, model.ViewSettings:
	default:
		return model.View{}, apperror.ValidationFailed("mode", fmt.Sprintf("unknown view %q", mode))
	}

	s.session.setView(view)
	s.logger.Debug("navigated", slog.String("mode", string(view.Mode)), slog.String("subject", view.SubjectID))
	return view, nil
}

func (s *SessionService) RequestLogout(_ context.Context) (confirm.Pending, error) {
	return s.confirms.Propose(confirm.KindLogout, s.session.ViewerID(),
		"هل أنت متأكد من أنك تريد تسجيل الخروج من حسابك؟",
		func(ctx context.Context) (any, error) { return s.Logout(ctx) },
	), nil
}

// Logout throws the session away: pending replies and open confirmations
// are cancelled, the store goes back to its initial contents and the viewer
// lands on home.
func (s *SessionService) Logout(ctx context.Context) (model.View, error) {
	defer s.session.lock()()

	s.replier.CancelPending()
	if err := s.reseed(ctx); err != nil {
		s.logger.Error("failed to reset session", slog.String("error", err.Error()))
		return model.View{}, fmt.Errorf("resetting session: %w", err)
	}
	s.confirms.Reset()
	home := model.View{Mode: model.ViewHome}
	s.session.setView(home)

	s.logger.Info("logged out")
	s.publisher.Publish(realtime.EventSessionReset, home)
	return home, nil
}
