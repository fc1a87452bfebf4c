package pop3

import "errors"

// Protocol errors for POP3.
var (
	// ErrNoSuchMessage is returned when a message number is out of range.
	ErrNoSuchMessage = errors.New("no such message")

	// ErrMessageDeleted is returned when accessing a message marked for deletion.
	ErrMessageDeleted = errors.New("message already deleted")
)
