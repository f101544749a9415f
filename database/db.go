package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB handles all database operations
type DB struct {
	conn *sql.DB
	ttl  time.Duration
	now  func() time.Time
}

// New opens the sqlite database at dbPath and initializes tables. Cached
// explanations older than ttl are treated as missing; a non-positive ttl
// keeps them forever.
func New(dbPath string, ttl time.Duration) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err = createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{conn: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS explanation_cache (
			question_key TEXT PRIMARY KEY,
			explanation TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	return err
}

// Get retrieves a cached explanation
func (db *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var explanation string
	var createdAt int64
	err := db.conn.QueryRowContext(ctx,
		"SELECT explanation, created_at FROM explanation_cache WHERE question_key = ?",
		key,
	).Scan(&explanation, &createdAt)

	if err == sql.ErrNoRows {
		return "", false, nil // No cached explanation
	}
	if err != nil {
		return "", false, err
	}

	if db.ttl > 0 && db.now().Sub(time.Unix(createdAt, 0)) > db.ttl {
		return "", false, nil
	}
	return explanation, true, nil
}

// Set stores an explanation, replacing any previous one
func (db *DB) Set(ctx context.Context, key, explanation string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO explanation_cache (question_key, explanation, created_at) VALUES (?, ?, ?)",
		key, explanation, db.now().Unix(),
	)
	return err
}

// Prune deletes explanations older than the TTL and returns how many were removed
func (db *DB) Prune(ctx context.Context) (int64, error) {
	if db.ttl <= 0 {
		return 0, nil
	}
	res, err := db.conn.ExecContext(ctx,
		"DELETE FROM explanation_cache WHERE created_at < ?",
		db.now().Add(-db.ttl).Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
