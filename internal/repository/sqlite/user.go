package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/model"
)

type userRepo struct{ db *DB }

const userColumns = `id, name, avatar, followers, following,
	username, bio, country, gender, job, qualification, email, phone,
	prefs_set, pref_likes, pref_comments, pref_follows,
	privacy_set, is_private, show_activity`

// Save upserts on id. ON CONFLICT ... DO UPDATE keeps the row's seq, so an
// edited user keeps its place in List.
func (r userRepo) Save(ctx context.Context, u *model.User) error {
	var prefs model.NotificationPreferences
	if u.NotificationPreferences != nil {
		prefs = *u.NotificationPreferences
	}
	var privacy model.PrivacySettings
	if u.PrivacySettings != nil {
		privacy = *u.PrivacySettings
	}

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, avatar = excluded.avatar,
			followers = excluded.followers, following = excluded.following,
			username = excluded.username, bio = excluded.bio, country = excluded.country,
			gender = excluded.gender, job = excluded.job, qualification = excluded.qualification,
			email = excluded.email, phone = excluded.phone,
			prefs_set = excluded.prefs_set, pref_likes = excluded.pref_likes,
			pref_comments = excluded.pref_comments, pref_follows = excluded.pref_follows,
			privacy_set = excluded.privacy_set, is_private = excluded.is_private,
			show_activity = excluded.show_activity`,
		u.ID, u.Name, u.Avatar, u.Followers, u.Following,
		u.Username, u.Bio, u.Country, u.Gender, u.Job, u.Qualification, u.Email, u.Phone,
		u.NotificationPreferences != nil, prefs.Likes, prefs.Comments, prefs.Follows,
		u.PrivacySettings != nil, privacy.IsPrivate, privacy.ShowActivityStatus,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving user %s: %w", u.ID, err)
	}
	return nil
}

func (r userRepo) Get(ctx context.Context, id string) (*model.User, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

func (r userRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// AdjustCounters clamps in SQL with MAX(0, ...) so the CHECK constraints
// never fire on a decrement from zero.
func (r userRepo) AdjustCounters(ctx context.Context, id string, followers, following int) (*model.User, error) {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE users
		 SET followers = MAX(0, followers + ?), following = MAX(0, following + ?)
		 WHERE id = ?`,
		followers, following, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: adjusting counters for %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return nil, apperror.NotFound("user", id)
	}
	return r.Get(ctx, id)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u                    model.User
		prefsSet, privacySet bool
		prefs                model.NotificationPreferences
		privacy              model.PrivacySettings
	)
	err := s.Scan(
		&u.ID, &u.Name, &u.Avatar, &u.Followers, &u.Following,
		&u.Username, &u.Bio, &u.Country, &u.Gender, &u.Job, &u.Qualification, &u.Email, &u.Phone,
		&prefsSet, &prefs.Likes, &prefs.Comments, &prefs.Follows,
		&privacySet, &privacy.IsPrivate, &privacy.ShowActivityStatus,
	)
	if err != nil {
		return nil, err
	}
	if prefsSet {
		u.NotificationPreferences = &prefs
	}
	if privacySet {
		u.PrivacySettings = &privacy
	}
	return &u, nil
}
