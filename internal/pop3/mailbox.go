package pop3

import (
	"context"
	"log/slog"

	"github.com/driftmail/popd/internal/maildir"
)

// Mailbox is a per-session immutable snapshot of a user's messages, taken
// at TRANSACTION entry. Message numbers are 1-based and stable for the
// session's lifetime; new arrivals are invisible until the next login.
// Deletion is deferred: marked entries stay in the snapshot but are
// filtered from listings until UPDATE commits them.
type Mailbox struct {
	entries []maildir.Entry
	deleted map[int]bool
}

// Listing is one line of a LIST response: message number and octet count.
type Listing struct {
	Num  int
	Size int64
}

// NewMailbox snapshots the user's messages from the store.
func NewMailbox(ctx context.Context, store MailStore, username string) (*Mailbox, error) {
	entries, err := store.ListMessages(ctx, username)
	if err != nil {
		return nil, err
	}
	return &Mailbox{
		entries: entries,
		deleted: make(map[int]bool),
	}, nil
}

// Count returns the number of messages not marked for deletion.
func (m *Mailbox) Count() int {
	count := 0
	for i := range m.entries {
		if !m.deleted[i+1] {
			count++
		}
	}
	return count
}

// TotalSize returns the octet total of messages not marked for deletion.
func (m *Mailbox) TotalSize() int64 {
	var total int64
	for i, e := range m.entries {
		if !m.deleted[i+1] {
			total += e.Size
		}
	}
	return total
}

// ListAll returns (number, size) for every message not marked for deletion,
// in ascending message-number order.
func (m *Mailbox) ListAll() []Listing {
	var listings []Listing
	for i, e := range m.entries {
		if !m.deleted[i+1] {
			listings = append(listings, Listing{Num: i + 1, Size: e.Size})
		}
	}
	return listings
}

// Entry returns the snapshot entry for a 1-based message number.
func (m *Mailbox) Entry(num int) (maildir.Entry, error) {
	if num < 1 || num > len(m.entries) {
		return maildir.Entry{}, ErrNoSuchMessage
	}
	if m.deleted[num] {
		return maildir.Entry{}, ErrMessageDeleted
	}
	return m.entries[num-1], nil
}

// MarkDeleted marks a message for deletion at UPDATE.
func (m *Mailbox) MarkDeleted(num int) error {
	if num < 1 || num > len(m.entries) {
		return ErrNoSuchMessage
	}
	if m.deleted[num] {
		return ErrMessageDeleted
	}
	m.deleted[num] = true
	return nil
}

// Reset clears all deletion marks (RSET).
func (m *Mailbox) Reset() {
	m.deleted = make(map[int]bool)
}

// CommitDeletes removes every marked message from the store. Per-message
// failures are logged and skipped; the commit is best effort. Returns the
// number of messages removed.
func (m *Mailbox) CommitDeletes(ctx context.Context, store MailStore, logger *slog.Logger) int {
	removed := 0
	for num := range m.deleted {
		entry := m.entries[num-1]
		if err := store.DeleteMessage(ctx, entry.Path); err != nil {
			logger.Error("failed to delete message",
				slog.Int("msg", num),
				slog.String("path", entry.Path),
				slog.String("error", err.Error()))
			continue
		}
		removed++
	}
	return removed
}
