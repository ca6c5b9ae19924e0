package client_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/meydan/internal/client"
	"github.com/sakif/meydan/internal/config"
	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/realtime"
	"github.com/sakif/meydan/internal/server"
)

func newClient(t *testing.T) *client.Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Store:   config.StoreConfig{Driver: config.DriverMemory},
		Feed:    config.FeedConfig{DateLocale: "en-US", Timezone: "UTC"},
		Confirm: config.ConfirmConfig{TTL: time.Minute},
		Share:   config.ShareConfig{BaseURL: "http://meydan.local"},
	}
	srv, err := server.New(cfg, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return client.New(ts.URL+"/", 5*time.Second, logger)
}

func TestClient_FeedAndPosts(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	posts, err := c.Feed(ctx, client.FeedQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, posts)

	created, err := c.CreatePost(ctx, "from the client", "")
	require.NoError(t, err)

	posts, err = c.Feed(ctx, client.FeedQuery{View: "profile", Search: "client"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, created.ID, posts[0].ID)

	liked, err := c.Like(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, liked.IsLiked)

	share, err := c.Share(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://meydan.local/posts/"+created.ID, share.URL)
}

func TestClient_APIError(t *testing.T) {
	c := newClient(t)

	_, err := c.Post(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)

	_, err = c.CreatePost(context.Background(), " ", "")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "validation_error", apiErr.Code)
}

func TestClient_ConfirmFlow(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	pending, err := c.Follow(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, confirm.StatePending, pending.State)

	out, err := c.Confirm(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, confirm.StateCommitted, out.State)

	following, err := c.Following(ctx)
	require.NoError(t, err)
	var ids []string
	for _, u := range following {
		ids = append(ids, u.ID)
	}
	assert.Contains(t, ids, "u3")

	pending, err = c.Block(ctx, "u4")
	require.NoError(t, err)
	out, err = c.Cancel(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, confirm.StateCancelled, out.State)

	blocked, err := c.Blocked(ctx)
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestClient_Watch(t *testing.T) {
	c := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan realtime.Event, 8)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, func(ev realtime.Event) { got <- ev })
	}()

	require.Eventually(t, func() bool {
		if _, err := c.Send(ctx, "user_2", "hello"); err != nil {
			return false
		}
		select {
		case ev := <-got:
			return ev.Type == realtime.EventMessageCreated
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
