// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY SQLITE FOR APP-LIFETIME STATE?
// The app keeps no state across restarts, so the default DSN is an in-memory
// database. SQLite still earns its place: ordering, cascading comment deletes
// and set membership are all expressed once in SQL, and switching the DSN to
// a file turns the same code into a durable store for debugging sessions.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C compiler is
// needed and the binary cross-compiles like any other Go program.
//
// ORDERING:
// Every table has an INTEGER PRIMARY KEY AUTOINCREMENT `seq` column next to
// the string id. Insertion order is what the app shows (newest post first,
// messages oldest first), and `seq` records it exactly, even when two rows
// share a timestamp.
//
// ONE CONNECTION:
// An in-memory SQLite database belongs to the connection that opened it, and
// a pooled second connection would see an empty database. The pool is capped
// at one connection, so every query must close its rows before the next query
// runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/meydan/internal/repository"
)

// DefaultDSN is an in-memory database. With cache=shared every *sql.DB in
// the process that opens this same name sees the same data; use a distinct
// name for an isolated store.
const DefaultDSN = "file:meydan?mode=memory&cache=shared"

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB and hands out the repository views over it.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New opens the database and runs migrations.
//
// dsn examples:
//   - "file:meydan?mode=memory&cache=shared" → in-memory, gone on Close
//   - ":memory:"                             → in-memory (tests)
//   - "data/meydan.db"                        → file-backed
func New(dsn string) (*DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// In-memory databases answer "memory" here; file databases switch to WAL.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Needed for the ON DELETE CASCADE from posts to comments.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Users() repository.UserRepository                 { return userRepo{db} }
func (db *DB) Posts() repository.PostRepository                 { return postRepo{db} }
func (db *DB) Messages() repository.MessageRepository           { return messageRepo{db} }
func (db *DB) Notifications() repository.NotificationRepository { return notificationRepo{db} }
func (db *DB) Graph() repository.GraphRepository                { return graphRepo{db} }

// tables lists every table in delete order (children first).
var tables = []string{"comments", "posts", "messages", "notifications", "follows", "blocks", "users"}

// Reset deletes every row in one transaction.
func (db *DB) Reset(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning reset: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("sqlite: clearing %s: %w", t, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing reset: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent,
// which matters for file-backed databases opened twice.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			seq            INTEGER PRIMARY KEY AUTOINCREMENT,
			id             TEXT NOT NULL UNIQUE,
			name           TEXT NOT NULL,
			avatar         TEXT NOT NULL DEFAULT '',
			followers      INTEGER NOT NULL DEFAULT 0 CHECK (followers >= 0),
			following      INTEGER NOT NULL DEFAULT 0 CHECK (following >= 0),
			username       TEXT NOT NULL DEFAULT '',
			bio            TEXT NOT NULL DEFAULT '',
			country        TEXT NOT NULL DEFAULT '',
			gender         TEXT NOT NULL DEFAULT '',
			job            TEXT NOT NULL DEFAULT '',
			qualification  TEXT NOT NULL DEFAULT '',
			email          TEXT NOT NULL DEFAULT '',
			phone          TEXT NOT NULL DEFAULT '',
			prefs_set      INTEGER NOT NULL DEFAULT 0,
			pref_likes     INTEGER NOT NULL DEFAULT 0,
			pref_comments  INTEGER NOT NULL DEFAULT 0,
			pref_follows   INTEGER NOT NULL DEFAULT 0,
			privacy_set    INTEGER NOT NULL DEFAULT 0,
			is_private     INTEGER NOT NULL DEFAULT 0,
			show_activity  INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			seq              INTEGER PRIMARY KEY AUTOINCREMENT,
			id               TEXT NOT NULL UNIQUE,
			author_id        TEXT NOT NULL,
			content          TEXT NOT NULL DEFAULT '',
			image            TEXT NOT NULL DEFAULT '',
			likes            INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
			is_liked         INTEGER NOT NULL DEFAULT 0,
			shares           INTEGER NOT NULL DEFAULT 0 CHECK (shares >= 0),
			created_at       DATETIME NOT NULL,
			original_post_id TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);

		CREATE TABLE IF NOT EXISTS comments (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			author_id  TEXT NOT NULL,
			text       TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
	`)
	if err != nil {
		return fmt.Errorf("creating posts tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			sender_id   TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			content     TEXT NOT NULL,
			created_at  DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notifications (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			actor_id   TEXT NOT NULL,
			type       TEXT NOT NULL CHECK (type IN ('like', 'comment', 'follow')),
			content    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			read       INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("creating messaging tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS follows (
			seq     INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS blocks (
			seq     INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL UNIQUE
		);
	`)
	if err != nil {
		return fmt.Errorf("creating graph tables: %w", err)
	}
	return nil
}
