package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/feed"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/seed"
)

func TestBlockFollowedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Navigate(ctx, model.ViewUserProfile, "user_2")
	require.NoError(t, err)

	pending, err := env.moderation.RequestBlock(ctx, "user_2")
	require.NoError(t, err)
	res := env.commit(t, pending).(*BlockResult)

	assert.True(t, res.Unfollowed)
	assert.True(t, res.Redirected)
	assert.Equal(t, model.View{Mode: model.ViewHome}, res.View)
	assert.Equal(t, model.ViewHome, env.sessions.View().Mode)
	assert.Equal(t, 529, res.User.Followers)

	_, following := counters(t, env, seed.ViewerID)
	assert.Equal(t, 233, following)

	posts, err := env.feed.Feed(ctx, feed.Query{Mode: model.ViewHome})
	require.NoError(t, err)
	for _, p := range posts {
		assert.NotEqual(t, "user_2", p.User.ID, "blocked authors leave the feed")
	}

	_, err = env.messages.Send(ctx, "user_2", "hi")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = env.sessions.Navigate(ctx, model.ViewChat, "user_2")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestBlockKeepsUnrelatedView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Navigate(ctx, model.ViewChat, "u3")
	require.NoError(t, err)

	res, err := env.moderation.Block(ctx, "u4")
	require.NoError(t, err)
	assert.False(t, res.Redirected)
	assert.False(t, res.Unfollowed)
	assert.Equal(t, model.View{Mode: model.ViewChat, SubjectID: "u3"}, env.sessions.View())
}

func TestBlockRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.moderation.RequestBlock(ctx, seed.ViewerID)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.moderation.RequestBlock(ctx, "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = env.moderation.Block(ctx, "u3")
	require.NoError(t, err)
	_, err = env.moderation.RequestBlock(ctx, "u3")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUnblockRestores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.moderation.Block(ctx, "user_3")
	require.NoError(t, err)
	blocked, err := env.moderation.Blocked(ctx)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, "user_3", blocked[0].ID)

	before, _ := counters(t, env, "user_3")
	_, err = env.moderation.Unblock(ctx, "user_3")
	require.NoError(t, err)
	after, _ := counters(t, env, "user_3")
	assert.Equal(t, before, after, "unblock leaves counters alone")

	posts, err := env.feed.Feed(ctx, feed.Query{})
	require.NoError(t, err)
	assert.Len(t, posts, 3, "posts come back, since nothing was deleted")

	_, err = env.moderation.Unblock(ctx, "user_3")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	before, _ := env.store.Posts().List(ctx)

	pending, err := env.moderation.RequestReport(ctx, "p3")
	require.NoError(t, err)
	receipt := env.commit(t, pending).(*model.ReportReceipt)

	assert.Equal(t, "p3", receipt.PostID)
	assert.Equal(t, ReportAcknowledgement, receipt.Message)
	after, _ := env.store.Posts().List(ctx)
	assert.Equal(t, before, after, "reporting changes nothing")

	_, err = env.moderation.RequestReport(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
