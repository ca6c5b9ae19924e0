package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/feed"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/service"
)

// PostHandler serves the feed and everything done to a single post.
type PostHandler struct {
	posts      *service.PostService
	feed       *service.FeedService
	moderation *service.ModerationService
	logger     *slog.Logger
}

func NewPostHandler(posts *service.PostService, feed *service.FeedService, moderation *service.ModerationService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, feed: feed, moderation: moderation, logger: logger}
}

// HandleFeed returns the visible posts for a view.
//
// HTTP: GET /api/feed?view=home&user=u3&q=text&by=content
//
// "view" defaults to home, "by" to content. "user" is the profile owner for
// view=user_profile.
func (h *PostHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	mode, err := model.ParseViewMode(q.Get("view"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("view", err.Error()))
		return
	}
	field, err := feed.ParseField(q.Get("by"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("by", err.Error()))
		return
	}

	posts, err := h.feed.Feed(r.Context(), feed.Query{
		Mode:      mode,
		SubjectID: q.Get("user"),
		Search:    q.Get("q"),
		Field:     field,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

type createPostRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// HandleCreate publishes a post.
//
// HTTP: POST /api/posts
// REQUEST BODY: {"text": "...", "image": "https://..."}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	post, err := h.posts.Create(r.Context(), req.Text, req.Image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HTTP: GET /api/posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

type editPostRequest struct {
	Content string `json:"content"`
}

// HTTP: PATCH /api/posts/{id}
func (h *PostHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var req editPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	post, err := h.posts.Edit(r.Context(), idParam(r), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleDelete proposes deleting a post. The post stays until the returned
// confirmation is confirmed.
//
// HTTP: DELETE /api/posts/{id} → 202 Accepted
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	pending, err := h.posts.RequestDelete(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pending)
}

// HTTP: POST /api/posts/{id}/like
func (h *PostHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.ToggleLike(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

type commentRequest struct {
	Text string `json:"text"`
}

// HTTP: POST /api/posts/{id}/comments
func (h *PostHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	post, err := h.posts.Comment(r.Context(), idParam(r), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HTTP: POST /api/posts/{id}/repost
func (h *PostHandler) HandleRepost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Repost(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HTTP: POST /api/posts/{id}/share
func (h *PostHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	payload, err := h.posts.Share(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// HTTP: POST /api/posts/{id}/report → 202 Accepted
func (h *PostHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	pending, err := h.moderation.RequestReport(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, pending)
}

type enhanceRequest struct {
	Text string `json:"text"`
}

// HandleEnhance rewrites a draft. It always answers 200: when the text could
// not be enhanced the response says so and carries the original text.
//
// HTTP: POST /api/enhance
func (h *PostHandler) HandleEnhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.posts.Enhance(r.Context(), req.Text))
}
