package sqlite

import (
	"context"
	"fmt"
)

// graphRepo stores the viewer's followed and blocked ids in two tables with
// the same shape. table is always one of the two constants below and never
// comes from user input.
type graphRepo struct{ db *DB }

const (
	followsTable = "follows"
	blocksTable  = "blocks"
)

func (r graphRepo) Following(ctx context.Context) ([]string, error) {
	return r.ids(ctx, followsTable)
}

func (r graphRepo) IsFollowing(ctx context.Context, userID string) (bool, error) {
	return r.has(ctx, followsTable, userID)
}

func (r graphRepo) Follow(ctx context.Context, userID string) error {
	return r.add(ctx, followsTable, userID)
}

func (r graphRepo) Unfollow(ctx context.Context, userID string) error {
	return r.remove(ctx, followsTable, userID)
}

func (r graphRepo) Blocked(ctx context.Context) ([]string, error) {
	return r.ids(ctx, blocksTable)
}

func (r graphRepo) IsBlocked(ctx context.Context, userID string) (bool, error) {
	return r.has(ctx, blocksTable, userID)
}

func (r graphRepo) Block(ctx context.Context, userID string) error {
	return r.add(ctx, blocksTable, userID)
}

func (r graphRepo) Unblock(ctx context.Context, userID string) error {
	return r.remove(ctx, blocksTable, userID)
}

func (r graphRepo) ids(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT user_id FROM `+table+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", table, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s: %w", table, err)
	}
	return ids, nil
}

func (r graphRepo) has(ctx context.Context, table, userID string) (bool, error) {
	var n int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking %s for %s: %w", table, userID, err)
	}
	return n > 0, nil
}

func (r graphRepo) add(ctx context.Context, table, userID string) error {
	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO `+table+` (user_id) VALUES (?) ON CONFLICT(user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("sqlite: adding %s to %s: %w", userID, table, err)
	}
	return nil
}

func (r graphRepo) remove(ctx context.Context, table, userID string) error {
	_, err := r.db.conn.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("sqlite: removing %s from %s: %w", userID, table, err)
	}
	return nil
}
