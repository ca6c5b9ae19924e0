package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/realtime"
	"github.com/sakif/meydan/internal/seed"
)

func TestThread(t *testing.T) {
	env := newTestEnv(t)

	thread, err := env.messages.Thread(context.Background(), "user_2")
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{thread[0].ID, thread[1].ID, thread[2].ID})

	empty, err := env.messages.Thread(context.Background(), "u3")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)
}

func TestSend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	msg, err := env.messages.Send(ctx, "user_2", "  تمام  ")
	require.NoError(t, err)
	assert.Equal(t, seed.ViewerID, msg.SenderID)
	assert.Equal(t, "user_2", msg.ReceiverID)
	assert.Equal(t, "تمام", msg.Content)

	thread, _ := env.messages.Thread(ctx, "user_2")
	require.Len(t, thread, 4)
	assert.Equal(t, msg.ID, thread[3].ID)

	events := env.pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventMessageCreated, events[0].Type)
	assert.Equal(t, []string{msg.ID}, env.replier.scheduled)
}

func TestSendRejections(t *testing.T) {
	tests := []struct {
		name    string
		to      string
		content string
		wantErr error
	}{
		{name: "empty", to: "user_2", content: "  ", wantErr: apperror.ErrValidation},
		{name: "self", to: seed.ViewerID, content: "hi", wantErr: apperror.ErrValidation},
		{name: "unknown", to: "ghost", content: "hi", wantErr: apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.messages.Send(context.Background(), tt.to, tt.content)
			assert.ErrorIs(t, err, tt.wantErr)

			all, _ := env.store.Messages().List(context.Background())
			assert.Len(t, all, 3)
			assert.Empty(t, env.replier.scheduled)
		})
	}
}

func TestConversations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	list, err := env.messages.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, list.Active, 1)
	assert.Equal(t, "user_2", list.Active[0].User.ID)
	assert.Equal(t, "m3", list.Active[0].LastMessage.ID)
	assert.Len(t, list.Suggested, 3)

	_, err = env.messages.Send(ctx, "u4", "مرحبا")
	require.NoError(t, err)
	_, err = env.moderation.Block(ctx, "u3")
	require.NoError(t, err)

	list, err = env.messages.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, list.Active, 2)
	assert.Equal(t, "u4", list.Active[0].User.ID, "newest conversation first")
	assert.Equal(t, "user_2", list.Active[1].User.ID)
	require.Len(t, list.Suggested, 1)
	assert.Equal(t, "user_3", list.Suggested[0].ID, "blocked users are not suggested")
}

func TestDelayedReplier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := &fakePublisher{}
	r := NewDelayedReplier(env.session, pub, 10*time.Millisecond, "", logger)
	defer r.Close()

	r.Schedule(model.Message{ID: "x", SenderID: seed.ViewerID, ReceiverID: "u3"})

	require.Eventually(t, func() bool {
		all, _ := env.store.Messages().List(ctx)
		return len(all) == 4
	}, time.Second, 5*time.Millisecond)

	all, _ := env.store.Messages().List(ctx)
	reply := all[3]
	assert.Equal(t, "u3", reply.SenderID)
	assert.Equal(t, seed.ViewerID, reply.ReceiverID)
	assert.Equal(t, DefaultAutoReply, reply.Content)
	require.Eventually(t, func() bool { return len(pub.Events()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestDelayedReplierCancel(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewDelayedReplier(env.session, nil, 50*time.Millisecond, "later", logger)

	r.Schedule(model.Message{SenderID: seed.ViewerID, ReceiverID: "u3"})
	r.CancelPending()
	r.Close()
	time.Sleep(80 * time.Millisecond)

	all, _ := env.store.Messages().List(context.Background())
	assert.Len(t, all, 3)
}

func TestDelayedReplierDropsReplyRacingLogout(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewDelayedReplier(env.session, nil, time.Millisecond, "late", logger)
	defer r.Close()

	// the timer fires while a logout holds the command lock
	unlock := env.session.lock()
	r.Schedule(model.Message{SenderID: seed.ViewerID, ReceiverID: "u3"})
	time.Sleep(20 * time.Millisecond)
	r.CancelPending()
	unlock()
	time.Sleep(20 * time.Millisecond)

	all, _ := env.store.Messages().List(context.Background())
	assert.Len(t, all, 3)
}

func TestDelayedReplierSkipsBlocked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewDelayedReplier(env.session, nil, time.Millisecond, "x", logger)

	require.NoError(t, env.store.Graph().Block(ctx, "u3"))
	r.Schedule(model.Message{SenderID: seed.ViewerID, ReceiverID: "u3"})
	time.Sleep(20 * time.Millisecond)
	r.Close()

	all, _ := env.store.Messages().List(ctx)
	assert.Len(t, all, 3)
}
