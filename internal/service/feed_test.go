package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/feed"
	"github.com/sakif/meydan/internal/model"
)

func ids(posts []model.PostView) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestFeed(t *testing.T) {
	tests := []struct {
		name  string
		query feed.Query
		want  []string
	}{
		{name: "home", query: feed.Query{}, want: []string{"p1", "p2", "p3"}},
		{name: "own profile", query: feed.Query{Mode: model.ViewProfile, SubjectID: "ignored"}, want: []string{"p1"}},
		{name: "other profile", query: feed.Query{Mode: model.ViewUserProfile, SubjectID: "user_3"}, want: []string{"p3"}},
		{name: "no posts", query: feed.Query{Mode: model.ViewUserProfile, SubjectID: "u4"}, want: []string{}},
		{name: "content search", query: feed.Query{Search: "الإسكندرية"}, want: []string{"p2"}},
		{name: "case folded", query: feed.Query{Search: "REACT"}, want: []string{"p1"}},
		{name: "author search", query: feed.Query{Search: "tech news", Field: feed.FieldAuthor}, want: []string{"p3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			posts, err := env.feed.Feed(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(posts))
		})
	}
}

func TestFeedHydratesAuthors(t *testing.T) {
	env := newTestEnv(t)

	posts, err := env.feed.Feed(context.Background(), feed.Query{})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "سارة علي", posts[1].User.Name)
	require.Len(t, posts[1].Comments, 1)
	assert.Equal(t, "أحمد محمد", posts[1].Comments[0].User.Name)
}

func TestFeedUserProfileNeedsSubject(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.feed.Feed(context.Background(), feed.Query{Mode: model.ViewUserProfile})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = env.feed.Feed(context.Background(), feed.Query{Mode: model.ViewUserProfile, SubjectID: "ghost"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFeedIncludesReposts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	repost, err := env.posts.Repost(ctx, "p2")
	require.NoError(t, err)

	posts, err := env.feed.Feed(ctx, feed.Query{Mode: model.ViewProfile})
	require.NoError(t, err)
	require.Equal(t, []string{repost.ID, "p1"}, ids(posts))
	require.NotNil(t, posts[0].OriginalPost)
	assert.Equal(t, "p2", posts[0].OriginalPost.ID)
}
