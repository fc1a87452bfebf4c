// Package auth provides the credential store for the POP3 server.
//
// Credentials live in a single embedded SQLite database: one row per user,
// keyed by username, holding an Argon2id PHC hash string. Passwords are
// never stored in the clear.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store is an embedded credential database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the credential database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening credential database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS credentials (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing credential schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser stores a new user with the given password, hashed with Argon2id.
// Returns true iff the user was newly created; false if the username already
// exists (the existing record is left untouched).
func (s *Store) CreateUser(ctx context.Context, username, password string) (bool, error) {
	if username == "" {
		return false, errors.New("username must not be empty")
	}

	phc, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO credentials (username, password_hash) VALUES (?, ?)",
		username, phc)
	if err != nil {
		return false, fmt.Errorf("creating user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Login verifies the given credentials. Returns true iff the user exists and
// the password matches; an unknown user is not distinguishable from a wrong
// password in the return value.
func (s *Store) Login(ctx context.Context, username, password string) (bool, error) {
	var phc string
	err := s.db.QueryRowContext(ctx,
		"SELECT password_hash FROM credentials WHERE username = ?",
		username).Scan(&phc)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up user: %w", err)
	}

	return VerifyPassword(password, phc)
}
