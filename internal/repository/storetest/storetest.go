// Package storetest holds the behaviour every repository.Store must share.
// Each store implementation calls Run from its own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/repository"
)

// Opener returns a fresh, empty store. It should register its own cleanup.
type Opener func(t *testing.T) repository.Store

// Run executes the whole contract against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("counters clamp at zero", func(t *testing.T) { testCounters(t, open(t)) })
	t.Run("posts prepend", func(t *testing.T) { testPostOrder(t, open(t)) })
	t.Run("post update and delete", func(t *testing.T) { testPostUpdateDelete(t, open(t)) })
	t.Run("comments append", func(t *testing.T) { testComments(t, open(t)) })
	t.Run("messages append", func(t *testing.T) { testMessages(t, open(t)) })
	t.Run("notifications", func(t *testing.T) { testNotifications(t, open(t)) })
	t.Run("graph sets", func(t *testing.T) { testGraph(t, open(t)) })
	t.Run("reset", func(t *testing.T) { testReset(t, open(t)) })
	t.Run("reads are copies", func(t *testing.T) { testCopies(t, open(t)) })
}

func user(id, name string) *model.User {
	return &model.User{ID: id, Name: name, Avatar: "https://picsum.photos/seed/" + id + "/200"}
}

func testUsers(t *testing.T, s repository.Store) {
	ctx := context.Background()

	sara := user("user_2", "سارة علي")
	sara.Username = "sara_ali"
	sara.Bio = "مصممة جرافيك"
	require.NoError(t, s.Users().Save(ctx, sara))

	viewer := user("curr_user_1", "أحمد محمد")
	viewer.NotificationPreferences = &model.NotificationPreferences{Likes: true, Comments: false, Follows: true}
	viewer.PrivacySettings = &model.PrivacySettings{ShowActivityStatus: true}
	require.NoError(t, s.Users().Save(ctx, viewer))

	got, err := s.Users().Get(ctx, "user_2")
	require.NoError(t, err)
	assert.Equal(t, "سارة علي", got.Name)
	assert.Equal(t, "sara_ali", got.Username)
	assert.Nil(t, got.NotificationPreferences)
	assert.Nil(t, got.PrivacySettings)

	got, err = s.Users().Get(ctx, "curr_user_1")
	require.NoError(t, err)
	require.NotNil(t, got.NotificationPreferences)
	assert.False(t, got.NotificationPreferences.Comments)
	assert.True(t, got.NotificationPreferences.Follows)
	require.NotNil(t, got.PrivacySettings)
	assert.True(t, got.PrivacySettings.ShowActivityStatus)

	// Save again replaces in place and keeps list position.
	sara.Name = "Sara Ali"
	require.NoError(t, s.Users().Save(ctx, sara))
	list, err := s.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Sara Ali", list[0].Name)
	assert.Equal(t, "curr_user_1", list[1].ID)

	_, err = s.Users().Get(ctx, "nobody")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func testCounters(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := user("u4", "يوسف أحمد")
	u.Followers = 1
	require.NoError(t, s.Users().Save(ctx, u))

	got, err := s.Users().AdjustCounters(ctx, "u4", -1, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Followers)
	assert.Equal(t, 0, got.Following)

	got, err = s.Users().AdjustCounters(ctx, "u4", -1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Followers, "followers never drop below zero")

	got, err = s.Users().AdjustCounters(ctx, "u4", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Followers)
	assert.Equal(t, 1, got.Following)

	_, err = s.Users().AdjustCounters(ctx, "ghost", 1, 0)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func testPostOrder(t *testing.T, s repository.Store) {
	ctx := context.Background()
	first := &model.Post{AuthorID: "user_2", Content: "first"}
	second := &model.Post{AuthorID: "u3", Content: "second"}
	require.NoError(t, s.Posts().Create(ctx, first))
	require.NoError(t, s.Posts().Create(ctx, second))

	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.NotNil(t, first.Comments)

	list, err := s.Posts().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Content)
	assert.Equal(t, "first", list[1].Content)
	assert.Empty(t, list[0].Comments)
	assert.NotNil(t, list[0].Comments)

	// Explicit ids and timestamps are kept.
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	seeded := &model.Post{ID: "p9", AuthorID: "user_2", Content: "seeded", CreatedAt: at,
		Comments: []model.Comment{{ID: "c9", AuthorID: "u3", Text: "hi", CreatedAt: at}}}
	require.NoError(t, s.Posts().Create(ctx, seeded))

	got, err := s.Posts().Get(ctx, "p9")
	require.NoError(t, err)
	assert.True(t, at.Equal(got.CreatedAt))
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "c9", got.Comments[0].ID)
}

func testPostUpdateDelete(t *testing.T, s repository.Store) {
	ctx := context.Background()
	a := &model.Post{AuthorID: "user_2", Content: "a"}
	b := &model.Post{AuthorID: "user_2", Content: "b", OriginalPostID: "root"}
	require.NoError(t, s.Posts().Create(ctx, a))
	require.NoError(t, s.Posts().Create(ctx, b))

	a.Content = "a edited"
	a.Likes = 3
	a.IsLiked = true
	a.Shares = 2
	require.NoError(t, s.Posts().Update(ctx, a))

	list, err := s.Posts().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Content, "update keeps position")
	assert.Equal(t, "root", list[0].OriginalPostID)
	assert.Equal(t, "a edited", list[1].Content)
	assert.Equal(t, 3, list[1].Likes)
	assert.True(t, list[1].IsLiked)
	assert.Equal(t, 2, list[1].Shares)

	require.NoError(t, s.Posts().AddComment(ctx, a.ID, &model.Comment{AuthorID: "u3", Text: "x"}))
	require.NoError(t, s.Posts().Delete(ctx, a.ID))
	_, err = s.Posts().Get(ctx, a.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.ErrorIs(t, s.Posts().Delete(ctx, a.ID), apperror.ErrNotFound)
	assert.ErrorIs(t, s.Posts().Update(ctx, &model.Post{ID: "missing"}), apperror.ErrNotFound)
}

func testComments(t *testing.T, s repository.Store) {
	ctx := context.Background()
	p := &model.Post{AuthorID: "user_2", Content: "photo"}
	require.NoError(t, s.Posts().Create(ctx, p))

	for _, text := range []string{"one", "two", "three"} {
		c := &model.Comment{AuthorID: "curr_user_1", Text: text}
		require.NoError(t, s.Posts().AddComment(ctx, p.ID, c))
		assert.NotEmpty(t, c.ID)
	}

	got, err := s.Posts().Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 3)
	assert.Equal(t, "one", got.Comments[0].Text)
	assert.Equal(t, "three", got.Comments[2].Text)

	err = s.Posts().AddComment(ctx, "missing", &model.Comment{AuthorID: "u3", Text: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func testMessages(t *testing.T, s repository.Store) {
	ctx := context.Background()
	for _, c := range []string{"m1", "m2", "m3"} {
		require.NoError(t, s.Messages().Append(ctx, &model.Message{SenderID: "a", ReceiverID: "b", Content: c}))
	}
	list, err := s.Messages().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "m1", list[0].Content)
	assert.Equal(t, "m3", list[2].Content)
	assert.NotEmpty(t, list[0].ID)
}

func testNotifications(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Notifications().Add(ctx, &model.Notification{ActorID: "u4", Type: model.NotificationFollow, Read: true}))
	require.NoError(t, s.Notifications().Add(ctx, &model.Notification{ActorID: "u3", Type: model.NotificationComment, Content: "nice"}))
	require.NoError(t, s.Notifications().Add(ctx, &model.Notification{ActorID: "user_2", Type: model.NotificationLike}))

	err := s.Notifications().Add(ctx, &model.Notification{ActorID: "u3", Type: "poke"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	list, err := s.Notifications().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, model.NotificationLike, list[0].Type, "newest first")
	assert.Equal(t, "nice", list[1].Content)

	changed, err := s.Notifications().MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	list, err = s.Notifications().List(ctx)
	require.NoError(t, err)
	for _, n := range list {
		assert.True(t, n.Read)
	}

	changed, err = s.Notifications().MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}

func testGraph(t *testing.T, s repository.Store) {
	ctx := context.Background()
	g := s.Graph()

	require.NoError(t, g.Follow(ctx, "user_2"))
	require.NoError(t, g.Follow(ctx, "user_3"))
	require.NoError(t, g.Follow(ctx, "user_2"))

	ids, err := g.Following(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user_2", "user_3"}, ids)

	ok, err := g.IsFollowing(ctx, "user_3")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, g.Unfollow(ctx, "user_3"))
	require.NoError(t, g.Unfollow(ctx, "never"))
	ok, err = g.IsFollowing(ctx, "user_3")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.Block(ctx, "u3"))
	ok, err = g.IsBlocked(ctx, "u3")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err = g.Blocked(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, ids)

	require.NoError(t, g.Unblock(ctx, "u3"))
	ids, err = g.Blocked(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func testReset(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Users().Save(ctx, user("u3", "خالد عمر")))
	p := &model.Post{AuthorID: "u3", Content: "x"}
	require.NoError(t, s.Posts().Create(ctx, p))
	require.NoError(t, s.Posts().AddComment(ctx, p.ID, &model.Comment{AuthorID: "u3", Text: "y"}))
	require.NoError(t, s.Messages().Append(ctx, &model.Message{SenderID: "a", ReceiverID: "b", Content: "hi"}))
	require.NoError(t, s.Notifications().Add(ctx, &model.Notification{ActorID: "u3", Type: model.NotificationLike}))
	require.NoError(t, s.Graph().Follow(ctx, "u3"))
	require.NoError(t, s.Graph().Block(ctx, "u4"))

	require.NoError(t, s.Reset(ctx))

	users, _ := s.Users().List(ctx)
	posts, _ := s.Posts().List(ctx)
	msgs, _ := s.Messages().List(ctx)
	notes, _ := s.Notifications().List(ctx)
	following, _ := s.Graph().Following(ctx)
	blocked, _ := s.Graph().Blocked(ctx)
	assert.Empty(t, users)
	assert.Empty(t, posts)
	assert.Empty(t, msgs)
	assert.Empty(t, notes)
	assert.Empty(t, following)
	assert.Empty(t, blocked)
}

func testCopies(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := user("curr_user_1", "أحمد محمد")
	u.PrivacySettings = &model.PrivacySettings{}
	require.NoError(t, s.Users().Save(ctx, u))
	p := &model.Post{AuthorID: "curr_user_1", Content: "mine"}
	require.NoError(t, s.Posts().Create(ctx, p))
	require.NoError(t, s.Posts().AddComment(ctx, p.ID, &model.Comment{AuthorID: "u3", Text: "c"}))

	got, err := s.Users().Get(ctx, "curr_user_1")
	require.NoError(t, err)
	got.PrivacySettings.IsPrivate = true
	got.Name = "changed"

	again, err := s.Users().Get(ctx, "curr_user_1")
	require.NoError(t, err)
	assert.False(t, again.PrivacySettings.IsPrivate)
	assert.Equal(t, "أحمد محمد", again.Name)

	posts, err := s.Posts().List(ctx)
	require.NoError(t, err)
	posts[0].Comments[0].Text = "tampered"

	fresh, err := s.Posts().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "c", fresh.Comments[0].Text)
}
