package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/realtime"
)

func TestNotificationsList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	list, err := env.notifications.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "n1", list[0].ID)
	assert.Equal(t, "سارة علي", list[0].User.Name)
	assert.Equal(t, model.NotificationComment, list[1].Type)

	unread, err := env.notifications.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)
}

func TestOpenReturnsListBeforeMarking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	shown, err := env.notifications.Open(ctx)
	require.NoError(t, err)
	assert.False(t, shown[0].Read, "the panel still highlights what was unread")
	assert.False(t, shown[1].Read)
	assert.True(t, shown[2].Read)

	unread, _ := env.notifications.UnreadCount(ctx)
	assert.Zero(t, unread)

	events := env.pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventNotificationsRead, events[0].Type)

	n, err := env.notifications.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, env.pub.Events(), 1, "nothing to announce the second time")
}

func TestNotificationsKeepBlockedActors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.moderation.Block(ctx, "user_2")
	require.NoError(t, err)

	list, err := env.notifications.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	unread, err := env.notifications.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	n, err := env.notifications.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, unread, n, "the badge and mark-read count the same set")
}
