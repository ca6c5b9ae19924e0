package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/enhance"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/repository"
	"github.com/sakif/meydan/internal/seed"
)

// =========================================================================
// CREATE
// =========================================================================

func TestCreatePost(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		image   string
		wantErr bool
	}{
		{name: "text only", text: "  مرحباً  "},
		{name: "image only", image: "https://picsum.photos/id/1/800/600"},
		{name: "text and image", text: "hi", image: "https://picsum.photos/id/2/800/600"},
		{name: "nothing", wantErr: true},
		{name: "whitespace only", text: " \n\t ", image: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()

			post, err := env.posts.Create(ctx, tt.text, tt.image)

			all, _ := env.store.Posts().List(ctx)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrValidation)
				assert.Len(t, all, 3, "state unchanged")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, seed.ViewerID, post.User.ID)
			assert.Equal(t, "أحمد محمد", post.User.Name)
			assert.Zero(t, post.Likes)
			assert.Zero(t, post.Shares)
			assert.False(t, post.IsLiked)
			assert.Empty(t, post.Comments)
			assert.NotEmpty(t, post.ID)
			require.Len(t, all, 4)
			assert.Equal(t, post.ID, all[0].ID, "new posts go on top")
		})
	}
}

func TestCreatePostTrimsText(t *testing.T) {
	env := newTestEnv(t)
	post, err := env.posts.Create(context.Background(), "  مرحباً  ", "")
	require.NoError(t, err)
	assert.Equal(t, "مرحباً", post.Content)
	assert.Equal(t, []string{"post_created"}, env.rec.Actions())
}

// =========================================================================
// LIKE
// =========================================================================

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// p1 starts unliked with 15 likes.
	post, err := env.posts.ToggleLike(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, post.IsLiked)
	assert.Equal(t, 16, post.Likes)

	post, err = env.posts.ToggleLike(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, post.IsLiked)
	assert.Equal(t, 15, post.Likes, "two toggles are an identity")

	// p2 starts liked with 42.
	post, err = env.posts.ToggleLike(ctx, "p2")
	require.NoError(t, err)
	assert.False(t, post.IsLiked)
	assert.Equal(t, 41, post.Likes)

	_, err = env.posts.ToggleLike(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestToggleLikeNeverNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.Posts().Update(ctx, &model.Post{ID: "p1", Content: "x", IsLiked: true, Likes: 0}))

	post, err := env.posts.ToggleLike(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, post.IsLiked)
	assert.Equal(t, 0, post.Likes)
}

func TestToggleLikeConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = env.posts.ToggleLike(ctx, "p3")
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	post, err := env.posts.Get(ctx, "p3")
	require.NoError(t, err)
	assert.False(t, post.IsLiked)
	assert.Equal(t, 340, post.Likes, "an even number of toggles leaves the count unchanged")
}

// =========================================================================
// COMMENT
// =========================================================================

func TestComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	post, err := env.posts.Comment(ctx, "p2", "  رائع  ")
	require.NoError(t, err)
	require.Len(t, post.Comments, 2)
	assert.Equal(t, "c1", post.Comments[0].ID, "comments append")
	assert.Equal(t, "رائع", post.Comments[1].Text)
	assert.Equal(t, seed.ViewerID, post.Comments[1].User.ID)

	_, err = env.posts.Comment(ctx, "p2", "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.posts.Comment(ctx, "nope", "hi")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	post, err = env.posts.Get(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, post.Comments, 2)
}

// =========================================================================
// EDIT
// =========================================================================

func TestEdit(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		content string
		wantErr error
		want    string
	}{
		{name: "own post", id: "p1", content: "محتوى جديد", want: "محتوى جديد"},
		{name: "someone else's post", id: "p2", content: "x", wantErr: apperror.ErrForbidden},
		{name: "empty content", id: "p1", content: "  ", wantErr: apperror.ErrValidation},
		{name: "missing post", id: "zzz", content: "x", wantErr: apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			post, err := env.posts.Edit(context.Background(), tt.id, tt.content)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, post.Content)
			assert.Equal(t, tt.id, post.ID, "edited in place")
		})
	}
}

func TestEditUnchangedIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	before, err := env.posts.Get(ctx, "p1")
	require.NoError(t, err)

	after, err := env.posts.Edit(ctx, "p1", before.Content)

	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, env.rec.Actions())
}

// =========================================================================
// DELETE
// =========================================================================

func TestDeleteNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending, err := env.posts.RequestDelete(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, confirm.KindDelete, pending.Kind)
	assert.Equal(t, "p1", pending.SubjectID)

	_, err = env.posts.Get(ctx, "p1")
	require.NoError(t, err, "nothing is deleted before confirmation")

	removed := env.commit(t, pending)
	assert.Equal(t, "p1", removed.(*model.PostView).ID)

	_, err = env.posts.Get(ctx, "p1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteCancelled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending, err := env.posts.RequestDelete(ctx, "p1")
	require.NoError(t, err)
	_, err = env.confirms.Cancel(pending.ID)
	require.NoError(t, err)

	_, err = env.posts.Get(ctx, "p1")
	assert.NoError(t, err)
}

func TestDeleteOthersPostForbidden(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.posts.RequestDelete(context.Background(), "p2")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = env.posts.Delete(context.Background(), "p2")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

// =========================================================================
// REPOST
// =========================================================================

func TestRepostPointsAtRoot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.posts.Repost(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, "p3", first.OriginalPostID)
	assert.Empty(t, first.Content)
	assert.Equal(t, seed.ViewerID, first.User.ID)
	require.NotNil(t, first.OriginalPost)
	assert.Equal(t, "Tech News Ar", first.OriginalPost.User.Name)

	// Reposting the repost wraps p3 again, not the repost.
	second, err := env.posts.Repost(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "p3", second.OriginalPostID)

	root, err := env.posts.Get(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, 122, root.Shares, "each repost counts on the root")

	reposted, err := env.posts.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reposted.Shares)

	all, _ := env.store.Posts().List(ctx)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestRepostOfDeletedRoot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	own, err := env.posts.Repost(ctx, "p1")
	require.NoError(t, err)
	_, err = env.posts.Delete(ctx, "p1")
	require.NoError(t, err)

	got, err := env.posts.Get(ctx, own.ID)
	require.NoError(t, err)
	assert.Nil(t, got.OriginalPost)
	assert.True(t, got.OriginalMissing)
	assert.Equal(t, "p1", got.OriginalPostID)

	_, err = env.posts.Repost(ctx, own.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

// =========================================================================
// SHARE
// =========================================================================

func TestShare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	payload, err := env.posts.Share(ctx, "p2")
	require.NoError(t, err)

	assert.Equal(t, ShareTitle, payload.Title)
	assert.Equal(t, "https://meydan.test/posts/p2", payload.URL)
	assert.Equal(t, payload.Text+"\n\n"+payload.URL, payload.Clipboard)
	assert.Equal(t, 6, payload.Shares)

	post, _ := env.posts.Get(ctx, "p2")
	assert.Equal(t, 6, post.Shares)

	_, err = env.posts.Share(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// ENHANCE
// =========================================================================

type stubEnhancer struct{ res enhance.Result }

func (s stubEnhancer) Enhance(context.Context, string) enhance.Result { return s.res }

func TestEnhanceRecordsOutcome(t *testing.T) {
	env := newTestEnv(t)

	res := env.posts.Enhance(context.Background(), "draft")
	assert.Equal(t, enhance.Result{Text: "draft", Reason: enhance.ReasonDisabled}, res)

	env.posts.enhancer = stubEnhancer{enhance.Result{Text: "better", Enhanced: true}}
	res = env.posts.Enhance(context.Background(), "draft")
	assert.Equal(t, "better", res.Text)

	assert.Equal(t, []string{enhance.ReasonDisabled, "enhanced"}, env.rec.enhancements)
}

// brokenUpdates is a store whose post updates always fail.
type brokenUpdates struct{ repository.Store }

func (s brokenUpdates) Posts() repository.PostRepository {
	return failingUpdate{s.Store.Posts()}
}

type failingUpdate struct{ repository.PostRepository }

func (failingUpdate) Update(context.Context, *model.Post) error {
	return errors.New("disk full")
}

func TestRepostRollsBackWhenShareCountFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	session := NewSession(brokenUpdates{env.store}, seed.ViewerID)
	posts := NewPostService(session, env.confirms, nil, env.rec, "https://meydan.test/", logger)

	before, err := env.store.Posts().List(ctx)
	require.NoError(t, err)
	rootBefore, err := env.store.Posts().Get(ctx, "p2")
	require.NoError(t, err)

	_, err = posts.Repost(ctx, "p2")
	require.Error(t, err)

	after, err := env.store.Posts().List(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "no orphan repost is left behind")
	root, err := env.store.Posts().Get(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, rootBefore.Shares, root.Shares)
}
