package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/enhance"
	"github.com/sakif/meydan/internal/model"
)

// ShareTitle is the title handed to the platform share sheet.
const ShareTitle = "Meydan"

// PostService owns the post lifecycle: create, like, comment, edit, delete,
// repost, share and draft enhancement.
type PostService struct {
	session  *Session
	confirms *confirm.Registry
	enhancer enhance.Enhancer
	rec      Recorder
	shareURL string
	logger   *slog.Logger
}

// NewPostService creates a PostService. shareURL is the public base URL that
// share payloads link to.
func NewPostService(session *Session, confirms *confirm.Registry, enhancer enhance.Enhancer, rec Recorder, shareURL string, logger *slog.Logger) *PostService {
	if enhancer == nil {
		enhancer = enhance.Disabled{}
	}
	return &PostService{
		session:  session,
		confirms: confirms,
		enhancer: enhancer,
		rec:      recorderOrNop(rec),
		shareURL: strings.TrimRight(shareURL, "/"),
		logger:   logger,
	}
}

// Create publishes a new post by the viewer at the top of the feed.
// A post needs text, an image, or both.
func (s *PostService) Create(ctx context.Context, text, image string) (*model.PostView, error) {
	text = strings.TrimSpace(text)
	image = strings.TrimSpace(image)
	if text == "" && image == "" {
		return nil, apperror.ValidationFailed("content", "a post needs text or an image")
	}

	defer s.session.lock()()

	post := &model.Post{
		AuthorID: s.session.ViewerID(),
		Content:  text,
		Image:    image,
	}
	if err := s.session.store.Posts().Create(ctx, post); err != nil {
		s.logger.Error("failed to create post", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.rec.Action("post_created")
	s.logger.Info("post created", slog.String("id", post.ID))
	return s.session.postView(ctx, post.ID)
}

func (s *PostService) Get(ctx context.Context, id string) (*model.PostView, error) {
	return s.session.postView(ctx, id)
}

// ToggleLike flips the viewer's like on a post.
func (s *PostService) ToggleLike(ctx context.Context, id string) (*model.PostView, error) {
	defer s.session.lock()()

	post, err := s.session.store.Posts().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	post.IsLiked = !post.IsLiked
	if post.IsLiked {
		post.Likes++
	} else if post.Likes > 0 {
		post.Likes--
	}
	if err := s.session.store.Posts().Update(ctx, post); err != nil {
		return nil, fmt.Errorf("updating likes: %w", err)
	}

	if post.IsLiked {
		s.rec.Action("post_liked")
	} else {
		s.rec.Action("post_unliked")
	}
	s.logger.Debug("like toggled", slog.String("id", id), slog.Bool("liked", post.IsLiked))
	return s.session.postView(ctx, id)
}

// Comment appends a comment by the viewer.
func (s *PostService) Comment(ctx context.Context, postID, text string) (*model.PostView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "comment text is required")
	}

	defer s.session.lock()()

	c := &model.Comment{AuthorID: s.session.ViewerID(), Text: text}
	if err := s.session.store.Posts().AddComment(ctx, postID, c); err != nil {
		return nil, err
	}

	s.rec.Action("comment_added")
	s.logger.Info("comment added", slog.String("post_id", postID), slog.String("id", c.ID))
	return s.session.postView(ctx, postID)
}

// Edit replaces the content of one of the viewer's posts. An edit that
// changes nothing succeeds without writing.
func (s *PostService) Edit(ctx context.Context, id, content string) (*model.PostView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "post content is required")
	}

	defer s.session.lock()()

	post, err := s.ownPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Content != content {
		post.Content = content
		if err := s.session.store.Posts().Update(ctx, post); err != nil {
			return nil, fmt.Errorf("editing post: %w", err)
		}
		s.rec.Action("post_edited")
		s.logger.Info("post edited", slog.String("id", id))
	}
	return s.session.postView(ctx, id)
}

// RequestDelete proposes deleting one of the viewer's posts.
func (s *PostService) RequestDelete(ctx context.Context, id string) (confirm.Pending, error) {
	if _, err := s.ownPost(ctx, id); err != nil {
		return confirm.Pending{}, err
	}
	return s.confirms.Propose(confirm.KindDelete, id,
		"حذف المنشور؟ لا يمكن التراجع عن هذا الإجراء.",
		func(ctx context.Context) (any, error) { return s.Delete(ctx, id) },
	), nil
}

// Delete removes one of the viewer's posts and returns it as it was.
// Reposts of it stay and render their original as missing.
func (s *PostService) Delete(ctx context.Context, id string) (*model.PostView, error) {
	defer s.session.lock()()

	if _, err := s.ownPost(ctx, id); err != nil {
		return nil, err
	}
	removed, err := s.session.postView(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.session.store.Posts().Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("deleting post: %w", err)
	}

	s.rec.Action("post_deleted")
	s.logger.Info("post deleted", slog.String("id", id))
	return removed, nil
}

// Repost creates an empty viewer post wrapping the root of id. Reposting a
// repost wraps the post it wraps. The root's share counter goes up by one.
func (s *PostService) Repost(ctx context.Context, id string) (*model.PostView, error) {
	defer s.session.lock()()

	posts := s.session.store.Posts()
	target, err := posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rootID := target.ID
	if target.IsRepost() {
		rootID = target.OriginalPostID
	}
	root, err := posts.Get(ctx, rootID)
	if err != nil {
		return nil, apperror.Conflict(fmt.Sprintf("post %s reposts a deleted post", id))
	}

	repost := &model.Post{
		AuthorID:       s.session.ViewerID(),
		OriginalPostID: rootID,
	}
	if err := posts.Create(ctx, repost); err != nil {
		return nil, fmt.Errorf("creating repost: %w", err)
	}
	// The share is counted only once the repost exists.
	root.Shares++
	if err := posts.Update(ctx, root); err != nil {
		if derr := posts.Delete(ctx, repost.ID); derr != nil {
			s.logger.Error("failed to roll back repost", slog.String("id", repost.ID), slog.String("error", derr.Error()))
		}
		return nil, fmt.Errorf("counting repost: %w", err)
	}

	s.rec.Action("post_reposted")
	s.logger.Info("post reposted",
		slog.String("id", repost.ID),
		slog.String("original_id", rootID),
	)
	return s.session.postView(ctx, repost.ID)
}

// Share counts a share and returns what the share sheet shows. It does not
// fail for an existing post: callers without a share sheet copy Clipboard.
func (s *PostService) Share(ctx context.Context, id string) (*model.SharePayload, error) {
	defer s.session.lock()()

	post, err := s.session.store.Posts().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Shares++
	if err := s.session.store.Posts().Update(ctx, post); err != nil {
		return nil, fmt.Errorf("counting share: %w", err)
	}

	url := s.shareURL + "/posts/" + post.ID
	s.rec.Action("post_shared")
	return &model.SharePayload{
		PostID:    post.ID,
		Title:     ShareTitle,
		Text:      post.Content,
		URL:       url,
		Clipboard: post.Content + "\n\n" + url,
		Shares:    post.Shares,
	}, nil
}

// Enhance rewrites a draft. It never fails; see enhance.Result.
func (s *PostService) Enhance(ctx context.Context, text string) enhance.Result {
	res := s.enhancer.Enhance(ctx, text)
	s.rec.Enhancement(res.Outcome())
	return res
}

func (s *PostService) ownPost(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.session.store.Posts().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != s.session.ViewerID() {
		return nil, apperror.Forbidden("only the author can change this post")
	}
	return post, nil
}
