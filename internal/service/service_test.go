package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/feed"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/repository/memory"
	"github.com/sakif/meydan/internal/seed"
)

// =========================================================================
// FAKES
// =========================================================================
//
// The store is the real in-memory implementation: it is fast, it has its own
// contract tests, and a hand-written mock of five repositories would mostly
// re-implement it. Collaborators at the edges (metrics, realtime, replies)
// are faked so tests can assert on what was sent to them.

type fakeRecorder struct {
	mu           sync.Mutex
	actions      []string
	enhancements []string
}

func (r *fakeRecorder) Action(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, name)
}

func (r *fakeRecorder) Enhancement(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enhancements = append(r.enhancements, outcome)
}

func (r *fakeRecorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.actions...)
}

type published struct {
	Type string
	Data any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *fakePublisher) Publish(eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{eventType, data})
}

func (p *fakePublisher) Events() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

type fakeReplier struct {
	scheduled []string
	cancelled int
}

func (r *fakeReplier) Schedule(msg model.Message) { r.scheduled = append(r.scheduled, msg.ID) }
func (r *fakeReplier) CancelPending()             { r.cancelled++ }

// =========================================================================
// TEST HELPER
// =========================================================================

// testEnv is a fully wired service layer over a freshly seeded memory store.
// Seed timestamps are relative to the real clock, like records the store
// stamps itself.
type testEnv struct {
	store    *memory.Store
	session  *Session
	confirms *confirm.Registry
	rec      *fakeRecorder
	pub      *fakePublisher
	replier  *fakeReplier

	posts         *PostService
	feed          *FeedService
	graph         *GraphService
	moderation    *ModerationService
	messages      *MessageService
	notifications *NotificationService
	profiles      *ProfileService
	sessions      *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	store := memory.New()
	reseed := seed.Loader(store, func() seed.Data { return seed.Fixed(time.Now()) })
	require.NoError(t, reseed(context.Background()))

	dates, err := feed.NewDateFormatter(feed.LocaleArabicEgypt, time.UTC)
	require.NoError(t, err)

	env := &testEnv{
		store:    store,
		session:  NewSession(store, seed.ViewerID),
		confirms: confirm.New(time.Minute),
		rec:      &fakeRecorder{},
		pub:      &fakePublisher{},
		replier:  &fakeReplier{},
	}
	env.posts = NewPostService(env.session, env.confirms, nil, env.rec, "https://meydan.test/", logger)
	env.feed = NewFeedService(env.session, feed.New(dates), logger)
	env.graph = NewGraphService(env.session, env.confirms, env.rec, logger)
	env.moderation = NewModerationService(env.session, env.confirms, env.rec, logger)
	env.messages = NewMessageService(env.session, env.replier, env.pub, env.rec, logger)
	env.notifications = NewNotificationService(env.session, env.pub, logger)
	env.profiles = NewProfileService(env.session, env.rec, logger)
	env.sessions = NewSessionService(env.session, env.confirms, reseed, env.replier, env.pub, logger)
	return env
}

func (e *testEnv) commit(t *testing.T, p confirm.Pending) any {
	t.Helper()
	out, err := e.confirms.Confirm(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, confirm.StateCommitted, out.State)
	return out.Result
}
