package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// SQLiteStore persists the follow graph in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and initializes the schema
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates tables and indices if they don't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS follows (
		follower TEXT NOT NULL,
		followee TEXT NOT NULL,
		FOREIGN KEY (follower) REFERENCES users(username),
		FOREIGN KEY (followee) REFERENCES users(username),
		UNIQUE(follower, followee)
	);

	CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows(followee);
	`

	_, err := s.db.Exec(schema)
	return err
}

// WithSession runs fn on a single dedicated connection
func (s *SQLiteStore) WithSession(ctx context.Context, fn func(w Writer) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(&sqliteWriter{conn: conn})
}

// GetNode retrieves a user by login, returns nil if not found
func (s *SQLiteStore) GetNode(ctx context.Context, login string) (*Node, error) {
	var node Node
	err := s.db.QueryRowContext(ctx, `
		SELECT username, url, created_at
		FROM users
		WHERE username = ?
	`, login).Scan(&node.Login, &node.URL, &node.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	return &node, nil
}

// Edges returns every FOLLOWS relationship ordered by follower then followee
func (s *SQLiteStore) Edges(ctx context.Context) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT follower, followee
		FROM follows
		ORDER BY follower, followee
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.Follower, &e.Followee); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return edges, nil
}

// Stats returns the number of stored users and relationships
func (s *SQLiteStore) Stats(ctx context.Context) (nodes, edges int, err error) {
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&nodes); err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM follows").Scan(&edges); err != nil {
		return 0, 0, fmt.Errorf("failed to count follows: %w", err)
	}
	return nodes, edges, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

type sqliteWriter struct {
	conn *sql.Conn
}

func (w *sqliteWriter) UpsertNode(ctx context.Context, login, url string) error {
	_, err := w.conn.ExecContext(ctx, `
		INSERT INTO users (username, url)
		VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET
			url = EXCLUDED.url
	`, login, url)

	if err != nil {
		return fmt.Errorf("failed to upsert node %s: %w", login, err)
	}
	return nil
}

func (w *sqliteWriter) UpsertEdge(ctx context.Context, follower, followee string) error {
	_, err := w.conn.ExecContext(ctx, `
		INSERT INTO follows (follower, followee)
		VALUES (?, ?)
		ON CONFLICT(follower, followee) DO NOTHING
	`, follower, followee)

	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return fmt.Errorf("failed to upsert edge %s -> %s: %w", follower, followee, ErrMissingNode)
		}
		return fmt.Errorf("failed to upsert edge %s -> %s: %w", follower, followee, err)
	}
	return nil
}
