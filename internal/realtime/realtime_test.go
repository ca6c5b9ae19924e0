package realtime

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	mu      sync.Mutex
	dropped int
	subs    int
}

func (s *fakeStats) Dropped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped++
}

func (s *fakeStats) Subscribers(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishFansOut(t *testing.T) {
	stats := &fakeStats{}
	h := NewHub(4, stats, quietLogger())

	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelB()
	assert.Equal(t, 2, stats.subs)

	h.Publish(EventMessageCreated, "hi")

	for _, ch := range []<-chan Event{a, b} {
		ev := <-ch
		assert.Equal(t, EventMessageCreated, ev.Type)
		assert.Equal(t, "hi", ev.Data)
		assert.False(t, ev.At.IsZero())
	}

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open, "cancel closes the channel")
	assert.Equal(t, 1, h.Count())
	assert.Equal(t, 1, stats.subs)
}

func TestSlowSubscriberDrops(t *testing.T) {
	stats := &fakeStats{}
	h := NewHub(1, stats, quietLogger())
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(EventMessageCreated, 1)
	h.Publish(EventMessageCreated, 2)

	assert.Equal(t, 1, stats.dropped)
	assert.Equal(t, 1, (<-ch).Data)
}

func TestCloseDisconnects(t *testing.T) {
	h := NewHub(1, nil, quietLogger())
	ch, cancel := h.Subscribe()
	h.Close()

	_, open := <-ch
	assert.False(t, open)
	assert.NotPanics(t, cancel)
	assert.NotPanics(t, func() { h.Publish(EventSessionReset, nil) })

	late, _ := h.Subscribe()
	_, open = <-late
	assert.False(t, open, "subscribing after close yields a closed channel")
}

func TestWebsocketStreamsEvents(t *testing.T) {
	h := NewHub(8, nil, quietLogger())
	srv := httptest.NewServer(NewHandler(h, quietLogger(), nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, 10*time.Millisecond)

	h.Publish(EventMessageCreated, map[string]string{"content": "مرحباً"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventMessageCreated, ev.Type)
	assert.Equal(t, "مرحباً", ev.Data["content"])

	conn.Close()
	require.Eventually(t, func() bool { return h.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
