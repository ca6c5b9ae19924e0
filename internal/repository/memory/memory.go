// Package memory is the default in-process store.
//
// COPY-ON-WRITE:
// Every mutation builds a fresh slice (or set) and swaps it in under the
// write lock; nothing already handed out is modified in place. Readers take
// the read lock, grab the current slice header, and copy what they return.
// A reader therefore sees either the whole mutation or none of it.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store keeps all collections in memory. The zero value is not usable; call New.
type Store struct {
	mu            sync.RWMutex
	users         []model.User
	posts         []model.Post
	messages      []model.Message
	notifications []model.Notification
	following     []string
	blocked       []string

	now func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

func (s *Store) Users() repository.UserRepository                 { return userRepo{s} }
func (s *Store) Posts() repository.PostRepository                 { return postRepo{s} }
func (s *Store) Messages() repository.MessageRepository           { return messageRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{s} }
func (s *Store) Graph() repository.GraphRepository                { return graphRepo{s} }

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = nil
	s.posts = nil
	s.messages = nil
	s.notifications = nil
	s.following = nil
	s.blocked = nil
	return nil
}

func (s *Store) Close() error { return nil }

// === users ===

type userRepo struct{ s *Store }

func (r userRepo) Save(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	next := make([]model.User, len(r.s.users), len(r.s.users)+1)
	copy(next, r.s.users)
	if i := indexUser(next, user.ID); i >= 0 {
		next[i] = user.Clone()
	} else {
		next = append(next, user.Clone())
	}
	r.s.users = next
	return nil
}

func (r userRepo) Get(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := indexUser(r.s.users, id)
	if i < 0 {
		return nil, apperror.NotFound("user", id)
	}
	u := r.s.users[i].Clone()
	return &u, nil
}

func (r userRepo) List(_ context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.User, len(r.s.users))
	for i, u := range r.s.users {
		out[i] = u.Clone()
	}
	return out, nil
}

func (r userRepo) AdjustCounters(_ context.Context, id string, followers, following int) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := indexUser(r.s.users, id)
	if i < 0 {
		return nil, apperror.NotFound("user", id)
	}
	next := make([]model.User, len(r.s.users))
	copy(next, r.s.users)

	u := next[i].Clone()
	u.Followers = clamp(u.Followers + followers)
	u.Following = clamp(u.Following + following)
	next[i] = u
	r.s.users = next

	out := u.Clone()
	return &out, nil
}

func indexUser(users []model.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// === posts ===

type postRepo struct{ s *Store }

func (r postRepo) Create(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if post.ID == "" {
		post.ID = xid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = r.s.now()
	}
	if post.Comments == nil {
		post.Comments = []model.Comment{}
	}
	if indexPost(r.s.posts, post.ID) >= 0 {
		return apperror.Conflict("post " + post.ID + " already exists")
	}

	next := make([]model.Post, 0, len(r.s.posts)+1)
	next = append(next, post.Clone())
	next = append(next, r.s.posts...)
	r.s.posts = next
	return nil
}

func (r postRepo) Get(_ context.Context, id string) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := indexPost(r.s.posts, id)
	if i < 0 {
		return nil, apperror.NotFound("post", id)
	}
	p := r.s.posts[i].Clone()
	return &p, nil
}

func (r postRepo) List(_ context.Context) ([]model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Post, len(r.s.posts))
	for i, p := range r.s.posts {
		out[i] = p.Clone()
	}
	return out, nil
}

func (r postRepo) Update(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := indexPost(r.s.posts, post.ID)
	if i < 0 {
		return apperror.NotFound("post", post.ID)
	}
	next := make([]model.Post, len(r.s.posts))
	copy(next, r.s.posts)

	p := next[i].Clone()
	p.Content = post.Content
	p.Image = post.Image
	p.Likes = post.Likes
	p.IsLiked = post.IsLiked
	p.Shares = post.Shares
	next[i] = p
	r.s.posts = next
	return nil
}

func (r postRepo) AddComment(_ context.Context, postID string, comment *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := indexPost(r.s.posts, postID)
	if i < 0 {
		return apperror.NotFound("post", postID)
	}
	if comment.ID == "" {
		comment.ID = xid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = r.s.now()
	}

	next := make([]model.Post, len(r.s.posts))
	copy(next, r.s.posts)
	p := next[i].Clone()
	p.Comments = append(p.Comments, *comment)
	next[i] = p
	r.s.posts = next
	return nil
}

func (r postRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := indexPost(r.s.posts, id)
	if i < 0 {
		return apperror.NotFound("post", id)
	}
	next := make([]model.Post, 0, len(r.s.posts)-1)
	next = append(next, r.s.posts[:i]...)
	next = append(next, r.s.posts[i+1:]...)
	r.s.posts = next
	return nil
}

func indexPost(posts []model.Post, id string) int {
	for i := range posts {
		if posts[i].ID == id {
			return i
		}
	}
	return -1
}

// === messages ===

type messageRepo struct{ s *Store }

func (r messageRepo) Append(_ context.Context, msg *model.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = xid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.s.now()
	}
	next := make([]model.Message, len(r.s.messages), len(r.s.messages)+1)
	copy(next, r.s.messages)
	r.s.messages = append(next, *msg)
	return nil
}

func (r messageRepo) List(_ context.Context) ([]model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Message, len(r.s.messages))
	copy(out, r.s.messages)
	return out, nil
}

// === notifications ===

type notificationRepo struct{ s *Store }

func (r notificationRepo) Add(_ context.Context, n *model.Notification) error {
	if err := n.Type.Validate(); err != nil {
		return apperror.ValidationFailed("type", err.Error())
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if n.ID == "" {
		n.ID = xid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.now()
	}
	next := make([]model.Notification, 0, len(r.s.notifications)+1)
	next = append(next, *n)
	r.s.notifications = append(next, r.s.notifications...)
	return nil
}

func (r notificationRepo) List(_ context.Context) ([]model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Notification, len(r.s.notifications))
	copy(out, r.s.notifications)
	return out, nil
}

func (r notificationRepo) MarkAllRead(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	next := make([]model.Notification, len(r.s.notifications))
	changed := 0
	for i, n := range r.s.notifications {
		if !n.Read {
			n.Read = true
			changed++
		}
		next[i] = n
	}
	r.s.notifications = next
	return changed, nil
}

// === graph ===

type graphRepo struct{ s *Store }

func (r graphRepo) Following(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]string(nil), r.s.following...), nil
}

func (r graphRepo) IsFollowing(_ context.Context, userID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return contains(r.s.following, userID), nil
}

func (r graphRepo) Follow(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.following = withID(r.s.following, userID)
	return nil
}

func (r graphRepo) Unfollow(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.following = withoutID(r.s.following, userID)
	return nil
}

func (r graphRepo) Blocked(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]string(nil), r.s.blocked...), nil
}

func (r graphRepo) IsBlocked(_ context.Context, userID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return contains(r.s.blocked, userID), nil
}

func (r graphRepo) Block(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.blocked = withID(r.s.blocked, userID)
	return nil
}

func (r graphRepo) Unblock(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.blocked = withoutID(r.s.blocked, userID)
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func withID(ids []string, id string) []string {
	if contains(ids, id) {
		return ids
	}
	next := make([]string, len(ids), len(ids)+1)
	copy(next, ids)
	return append(next, id)
}

func withoutID(ids []string, id string) []string {
	if !contains(ids, id) {
		return ids
	}
	next := make([]string, 0, len(ids)-1)
	for _, v := range ids {
		if v != id {
			next = append(next, v)
		}
	}
	return next
}
