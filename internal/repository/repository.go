// Package repository declares the storage contracts the service layer depends on.
//
// Services take these interfaces, never a concrete store. Two implementations
// exist: repository/memory (copy-on-write slices, the default) and
// repository/sqlite (modernc.org/sqlite). Both satisfy the same ordering rules:
//
//   - posts list newest insertion first (Create prepends)
//   - comments and messages list in append order
//   - notifications list in stored order, and Add puts new ones in front
//
// Every read returns copies; mutating a returned value never changes the store.
package repository

import (
	"context"

	"github.com/sakif/meydan/internal/model"
)

type UserRepository interface {
	// Save inserts the user or replaces the stored record with the same id.
	Save(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	// List returns users in insertion order.
	List(ctx context.Context) ([]model.User, error)
	// AdjustCounters adds the deltas to the follower and following counters.
	// Results below zero are clamped to zero.
	AdjustCounters(ctx context.Context, id string, followers, following int) (*model.User, error)
}

type PostRepository interface {
	// Create prepends the post. A missing ID is generated and a zero CreatedAt
	// is set to now.
	Create(ctx context.Context, post *model.Post) error
	Get(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context) ([]model.Post, error)
	// Update writes the mutable fields (content, image, likes, isLiked, shares)
	// of an existing post in place, keeping its position.
	Update(ctx context.Context, post *model.Post) error
	AddComment(ctx context.Context, postID string, comment *model.Comment) error
	Delete(ctx context.Context, id string) error
}

type MessageRepository interface {
	Append(ctx context.Context, msg *model.Message) error
	List(ctx context.Context) ([]model.Message, error)
}

type NotificationRepository interface {
	Add(ctx context.Context, n *model.Notification) error
	List(ctx context.Context) ([]model.Notification, error)
	// MarkAllRead flips every unread entry and returns how many changed.
	MarkAllRead(ctx context.Context) (int, error)
}

// GraphRepository holds the viewer's followed-id and blocked-id sets.
// Both sets list in insertion order. Adding a present id or removing an
// absent one is a no-op.
type GraphRepository interface {
	Following(ctx context.Context) ([]string, error)
	IsFollowing(ctx context.Context, userID string) (bool, error)
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error

	Blocked(ctx context.Context) ([]string, error)
	IsBlocked(ctx context.Context, userID string) (bool, error)
	Block(ctx context.Context, userID string) error
	Unblock(ctx context.Context, userID string) error
}

// Store bundles the repositories of one app instance.
type Store interface {
	Users() UserRepository
	Posts() PostRepository
	Messages() MessageRepository
	Notifications() NotificationRepository
	Graph() GraphRepository

	// Reset empties every collection.
	Reset(ctx context.Context) error
	Close() error
}
