package pop3

import (
	"context"

	"github.com/driftmail/popd/internal/maildir"
)

// AuthStore is the credential collaborator consumed by the session core.
// The core calls Login exactly once per session, during AUTHORIZATION.
type AuthStore interface {
	// Login reports whether the credentials verify. An unknown user and a
	// wrong password are indistinguishable in the result.
	Login(ctx context.Context, username, password string) (bool, error)
}

// MailStore is the message storage collaborator consumed by the session
// core: once at TRANSACTION entry to snapshot, on each RETR to read bytes,
// and during UPDATE to apply deletions.
type MailStore interface {
	// ListMessages enumerates a user's stored messages in the store's
	// stable order.
	ListMessages(ctx context.Context, username string) ([]maildir.Entry, error)

	// ReadMessage returns the full content of a message by path.
	ReadMessage(ctx context.Context, path string) ([]byte, error)

	// DeleteMessage removes a message by path.
	DeleteMessage(ctx context.Context, path string) error
}
