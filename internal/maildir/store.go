// Package maildir provides Maildir-backed message storage for the POP3
// server.
//
// Each user owns a mailbox at <base>/<user>/{new,cur,tmp}; every regular
// file under new/ and cur/ is one message in RFC 5322 wire form. tmp/ exists
// for delivery-agent atomicity and is never touched here. The POP3 lock
// table guarantees a single session per user, so the store needs no internal
// locking for per-user files.
package maildir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ErrNotFound is returned when a message file does not exist.
var ErrNotFound = errors.New("message not found")

// Entry describes one stored message.
type Entry struct {
	// Path is the opaque storage handle used for later reads and deletes.
	Path string

	// Size is the octet count of the stored message as delivered on the
	// wire, before dot-stuffing.
	Size int64
}

// Store provides access to per-user Maildir mailboxes under a base path.
type Store struct {
	base string
}

// NewStore creates a Store rooted at the given base path.
func NewStore(base string) *Store {
	return &Store{base: base}
}

// userDir returns the mailbox directory for a user.
func (s *Store) userDir(username string) string {
	return filepath.Join(s.base, username)
}

// InitUserMailbox idempotently creates the Maildir layout for a user.
func (s *Store) InitUserMailbox(username string) error {
	dir := s.userDir(username)
	for _, sub := range []string{"new", "cur", "tmp"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o700); err != nil {
			return fmt.Errorf("initializing mailbox for %s: %w", username, err)
		}
	}
	return nil
}

// ListMessages enumerates all messages for a user: the new/ partition
// followed by cur/, each in lexically sorted filename order. The order is
// deterministic so a session snapshot can assign stable message numbers.
// A missing partition directory is treated as empty.
func (s *Store) ListMessages(ctx context.Context, username string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := s.userDir(username)
	var entries []Entry
	for _, sub := range []string{"new", "cur"} {
		part, err := scanDir(filepath.Join(dir, sub))
		if err != nil {
			return nil, fmt.Errorf("listing %s mailbox for %s: %w", sub, username, err)
		}
		entries = append(entries, part...)
	}
	return entries, nil
}

// scanDir lists the regular files in one partition directory, sorted by name.
func scanDir(dir string) ([]Entry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	sort.Slice(dirents, func(i, j int) bool {
		return dirents[i].Name() < dirents[j].Name()
	})

	var entries []Entry
	for _, de := range dirents {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Path: filepath.Join(dir, de.Name()),
			Size: info.Size(),
		})
	}
	return entries, nil
}

// ReadMessage returns the full content of a stored message by path.
func (s *Store) ReadMessage(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading message: %w", err)
	}
	return data, nil
}

// DeleteMessage removes a stored message by path.
func (s *Store) DeleteMessage(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}
