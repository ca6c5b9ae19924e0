package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/meydan/internal/apperror"
	"github.com/sakif/meydan/internal/model"
)

type postRepo struct{ db *DB }

const postColumns = `id, author_id, content, image, likes, is_liked, shares, created_at, original_post_id`

// Create inserts the post. Prepending is a matter of ordering: List reads
// ORDER BY seq DESC, so the newest insert comes first.
func (r postRepo) Create(ctx context.Context, p *model.Post) error {
	if p.ID == "" {
		p.ID = xid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.db.now()
	}
	if p.Comments == nil {
		p.Comments = []model.Comment{}
	}

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning post insert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AuthorID, p.Content, p.Image, p.Likes, p.IsLiked, p.Shares, p.CreatedAt, p.OriginalPostID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	// Seeded posts arrive with their comments already attached.
	for i := range p.Comments {
		if err := insertComment(ctx, tx, r.db, p.ID, &p.Comments[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing post: %w", err)
	}
	return nil
}

func (r postRepo) Get(ctx context.Context, id string) (*model.Post, error) {
	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)

	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	comments, err := r.comments(ctx, `WHERE post_id = ?`, id)
	if err != nil {
		return nil, err
	}
	p.Comments = comments[id]
	if p.Comments == nil {
		p.Comments = []model.Comment{}
	}
	return p, nil
}

// List runs two queries (posts, then every comment) rather than one comment
// query per post. With a single pooled connection the first result set must
// be drained before the second query starts.
func (r postRepo) List(ctx context.Context) ([]model.Post, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	rows.Close()

	byPost, err := r.comments(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Comments = byPost[posts[i].ID]
		if posts[i].Comments == nil {
			posts[i].Comments = []model.Comment{}
		}
	}
	return posts, nil
}

func (r postRepo) Update(ctx context.Context, p *model.Post) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE posts
		 SET content = ?, image = ?, likes = ?, is_liked = ?, shares = ?
		 WHERE id = ?`,
		p.Content, p.Image, p.Likes, p.IsLiked, p.Shares, p.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", p.ID, err)
	}
	return expectOne(result, "post", p.ID)
}

func (r postRepo) AddComment(ctx context.Context, postID string, c *model.Comment) error {
	var exists int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE id = ?`, postID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: checking post %s: %w", postID, err)
	}
	if exists == 0 {
		return apperror.NotFound("post", postID)
	}
	return insertComment(ctx, r.db.conn, r.db, postID, c)
}

// Delete removes the post; its comments go with it through ON DELETE CASCADE.
func (r postRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}
	return expectOne(result, "post", id)
}

// comments loads comments grouped by post id, in append order.
func (r postRepo) comments(ctx context.Context, where string, args ...any) (map[string][]model.Comment, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT post_id, id, author_id, text, created_at FROM comments `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.Comment)
	for rows.Next() {
		var (
			postID string
			c      model.Comment
		)
		if err := rows.Scan(&postID, &c.ID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		out[postID] = append(out[postID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return out, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertComment(ctx context.Context, ex execer, db *DB, postID string, c *model.Comment) error {
	if c.ID == "" {
		c.ID = xid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = db.now()
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, author_id, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, postID, c.AuthorID, c.Text, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding comment to %s: %w", postID, err)
	}
	return nil
}

func scanPost(s scanner) (*model.Post, error) {
	var p model.Post
	err := s.Scan(&p.ID, &p.AuthorID, &p.Content, &p.Image, &p.Likes, &p.IsLiked,
		&p.Shares, &p.CreatedAt, &p.OriginalPostID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func expectOne(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
