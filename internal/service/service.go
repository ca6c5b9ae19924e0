// Package service contains the business rules of the app.
//
// THE LAYERS:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the store
//
// Services take repository interfaces, never a concrete store, and return
// apperror values that the handler layer maps to status codes. Nothing in
// this package knows about HTTP.
//
// ONE VIEWER, ONE SESSION:
// The app serves a single signed-in viewer. Session carries the store, the
// viewer's id and the viewer's current screen, and it serialises mutations:
// every command that reads a record, changes it and writes it back holds
// the session lock for the whole read-modify-write, so two concurrent likes
// on the same post never lose an update.
//
// CONFIRMED ACTIONS:
// Follow, unfollow, block, delete, report and logout go through the
// confirm.Registry. Each has a RequestX method that validates the target and
// proposes the action, and an X method that performs it. RequestX never
// mutates anything; X runs when the proposal is confirmed.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/repository"
)

// Publisher pushes domain events to realtime subscribers.
// realtime.Hub satisfies it.
type Publisher interface {
	Publish(eventType string, data any)
}

// Recorder counts domain actions. metrics.Metrics satisfies it.
type Recorder interface {
	Action(name string)
	Enhancement(outcome string)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

type nopRecorder struct{}

func (nopRecorder) Action(string)      {}
func (nopRecorder) Enhancement(string) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// Session is the state of the signed-in viewer.
type Session struct {
	store    repository.Store
	viewerID string

	// mu serialises commands.
	mu sync.Mutex

	viewMu sync.RWMutex
	view   model.View
}

func NewSession(store repository.Store, viewerID string) *Session {
	return &Session{
		store:    store,
		viewerID: viewerID,
		view:     model.View{Mode: model.ViewHome},
	}
}

func (s *Session) ViewerID() string { return s.viewerID }

func (s *Session) Store() repository.Store { return s.store }

// View returns the viewer's current screen.
func (s *Session) View() model.View {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view
}

func (s *Session) setView(v model.View) {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.view = v
}

// lock takes the command lock and returns its release:
//
//	defer s.session.lock()()
func (s *Session) lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// === HYDRATION ===
//
// Posts, comments and notifications store author ids. Read models carry the
// whole User, looked up at read time, so a profile edit is visible everywhere
// at once.

func (s *Session) userIndex(ctx context.Context) (map[string]model.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	idx := make(map[string]model.User, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx, nil
}

func (s *Session) blockedSet(ctx context.Context) (map[string]bool, error) {
	ids, err := s.store.Graph().Blocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing blocked users: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// lookup returns the user for id, or a stand-in carrying only the id when the
// record is gone.
func lookup(users map[string]model.User, id string) model.User {
	if u, ok := users[id]; ok {
		return u
	}
	return model.User{ID: id}
}

// hydratePosts builds read models for posts. all is the whole collection,
// used to attach the root of each repost.
func hydratePosts(posts, all []model.Post, users map[string]model.User) []model.PostView {
	byID := make(map[string]model.Post, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}

	out := make([]model.PostView, 0, len(posts))
	for _, p := range posts {
		v := hydratePost(p, users)
		if p.IsRepost() {
			if root, ok := byID[p.OriginalPostID]; ok {
				rv := hydratePost(root, users)
				v.OriginalPost = &rv
			} else {
				v.OriginalMissing = true
			}
		}
		out = append(out, v)
	}
	return out
}

func hydratePost(p model.Post, users map[string]model.User) model.PostView {
	comments := make([]model.CommentView, len(p.Comments))
	for i, c := range p.Comments {
		comments[i] = model.CommentView{
			ID:        c.ID,
			User:      lookup(users, c.AuthorID),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		}
	}
	return model.PostView{
		ID:             p.ID,
		User:           lookup(users, p.AuthorID),
		Content:        p.Content,
		Image:          p.Image,
		Likes:          p.Likes,
		IsLiked:        p.IsLiked,
		Comments:       comments,
		Shares:         p.Shares,
		CreatedAt:      p.CreatedAt,
		OriginalPostID: p.OriginalPostID,
	}
}

// postView loads and hydrates a single post.
func (s *Session) postView(ctx context.Context, id string) (*model.PostView, error) {
	post, err := s.store.Posts().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	users, err := s.userIndex(ctx)
	if err != nil {
		return nil, err
	}
	var all []model.Post
	if post.IsRepost() {
		if root, err := s.store.Posts().Get(ctx, post.OriginalPostID); err == nil {
			all = []model.Post{*root}
		}
	}
	v := hydratePosts([]model.Post{*post}, all, users)[0]
	return &v, nil
}

func (s *Session) usersByID(ctx context.Context, ids []string) ([]model.User, error) {
	users, err := s.userIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
