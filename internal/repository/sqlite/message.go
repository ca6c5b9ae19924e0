package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/model"
)

type messageRepo struct{ db *DB }

func (r messageRepo) Append(ctx context.Context, m *model.Message) error {
	if m.ID == "" {
		m.ID = xid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.db.now()
	}
	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Content, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: appending message: %w", err)
	}
	return nil
}

func (r messageRepo) List(ctx context.Context) ([]model.Message, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, content, created_at FROM messages ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages: %w", err)
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating messages: %w", err)
	}
	return msgs, nil
}

type notificationRepo struct{ db *DB }

func (r notificationRepo) Add(ctx context.Context, n *model.Notification) error {
	if err := n.Type.Validate(); err != nil {
		return apperror.ValidationFailed("type", err.Error())
	}
	if n.ID == "" {
		n.ID = xid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.db.now()
	}
	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO notifications (id, actor_id, type, content, created_at, read) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.ActorID, string(n.Type), n.Content, n.CreatedAt, n.Read,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding notification: %w", err)
	}
	return nil
}

// List returns the most recently added notification first.
func (r notificationRepo) List(ctx context.Context) ([]model.Notification, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, actor_id, type, content, created_at, read FROM notifications ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notifications: %w", err)
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var (
			n   model.Notification
			typ string
		)
		if err := rows.Scan(&n.ID, &n.ActorID, &typ, &n.Content, &n.CreatedAt, &n.Read); err != nil {
			return nil, fmt.Errorf("sqlite: scanning notification row: %w", err)
		}
		n.Type = model.NotificationType(typ)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notifications: %w", err)
	}
	return out, nil
}

func (r notificationRepo) MarkAllRead(ctx context.Context) (int, error) {
	result, err := r.db.conn.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE read = 0`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: marking notifications read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return int(n), nil
}
