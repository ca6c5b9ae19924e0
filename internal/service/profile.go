package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/model"
)

// ProfilePatch is a partial edit of the viewer's profile. Nil fields are left
// alone; a non-nil empty string clears an optional field.
type ProfilePatch struct {
	Name          *string `json:"name,omitempty"`
	Avatar        *string `json:"avatar,omitempty"`
	Username      *string `json:"username,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	Country       *string `json:"country,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	Job           *string `json:"job,omitempty"`
	Qualification *string `json:"qualification,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
}

// ProfileService reads user profiles and edits the viewer's own.
type ProfileService struct {
	session *Session
	rec     Recorder
	logger  *slog.Logger
}

func NewProfileService(session *Session, rec Recorder, logger *slog.Logger) *ProfileService {
	return &ProfileService{session: session, rec: recorderOrNop(rec), logger: logger}
}

// Users lists every known user, the viewer first.
func (s *ProfileService) Users(ctx context.Context) ([]model.User, error) {
	users, err := s.session.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Profile returns a user together with how they relate to the viewer.
func (s *ProfileService) Profile(ctx context.Context, userID string) (*model.ProfileView, error) {
	user, err := s.session.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	graph := s.session.store.Graph()
	following, err := graph.IsFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	blocked, err := graph.IsBlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.session.store.Posts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	count := 0
	for _, p := range posts {
		if p.AuthorID == userID {
			count++
		}
	}

	return &model.ProfileView{
		User:        *user,
		PostCount:   count,
		IsSelf:      userID == s.session.ViewerID(),
		IsFollowing: following,
		IsBlocked:   blocked,
	}, nil
}

// EditProfile applies patch to the viewer.
func (s *ProfileService) EditProfile(ctx context.Context, patch ProfilePatch) (*model.User, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperror.ValidationFailed("name", "name cannot be empty")
	}

	defer s.session.lock()()

	user, err := s.session.store.Users().Get(ctx, s.session.ViewerID())
	if err != nil {
		return nil, err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&user.Name, patch.Name)
	set(&user.Avatar, patch.Avatar)
	set(&user.Username, patch.Username)
	set(&user.Bio, patch.Bio)
	set(&user.Country, patch.Country)
	set(&user.Gender, patch.Gender)
	set(&user.Job, patch.Job)
	set(&user.Qualification, patch.Qualification)
	set(&user.Email, patch.Email)
	set(&user.Phone, patch.Phone)

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.rec.Action("profile_edited")
	s.logger.Info("profile updated", slog.String("user_id", user.ID))
	return user, nil
}

func (s *ProfileService) UpdateNotificationPreferences(ctx context.Context, prefs model.NotificationPreferences) (*model.User, error) {
	defer s.session.lock()()

	user, err := s.session.store.Users().Get(ctx, s.session.ViewerID())
	if err != nil {
		return nil, err
	}
	user.NotificationPreferences = &prefs
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("notification preferences updated",
		slog.Bool("likes", prefs.Likes),
		slog.Bool("comments", prefs.Comments),
		slog.Bool("follows", prefs.Follows),
	)
	return user, nil
}

func (s *ProfileService) UpdatePrivacySettings(ctx context.Context, settings model.PrivacySettings) (*model.User, error) {
	defer s.session.lock()()

	user, err := s.session.store.Users().Get(ctx, s.session.ViewerID())
	if err != nil {
		return nil, err
	}
	user.PrivacySettings = &settings
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("privacy settings updated",
		slog.Bool("private", settings.IsPrivate),
		slog.Bool("show_activity", settings.ShowActivityStatus),
	)
	return user, nil
}

func (s *ProfileService) save(ctx context.Context, user *model.User) error {
	if err := s.session.store.Users().Save(ctx, user); err != nil {
		s.logger.Error("failed to save user",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}
