package pop3

import (
	"context"
	"strings"

	"github.com/driftmail/popd/internal/metrics"
)

// userCommand implements the USER command (RFC 1939).
type userCommand struct{}

func (u *userCommand) Name() string {
	return "USER"
}

func (u *userCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	switch sess.State() {
	case StateAuthorization, StateAuthorizationUser:
		// A repeated USER before PASS replaces the pending name.
	default:
		return errNotInState(StateAuthorization), nil
	}

	if len(args) < 1 {
		return Response{OK: false, Message: "USER requires username"}, nil
	}

	sess.SetUser(args[0])

	return Response{OK: true, Message: "User accepted"}, nil
}

// passCommand implements the PASS command (RFC 1939). A successful PASS
// performs, in order: credential verification, mailbox lock acquisition,
// and snapshot construction. Any failure leaves the session state unchanged.
type passCommand struct {
	auth      AuthStore
	locks     *LockTable
	store     MailStore
	collector metrics.Collector
}

func (p *passCommand) Name() string {
	return "PASS"
}

func (p *passCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	switch sess.State() {
	case StateAuthorizationUser:
	case StateAuthorization:
		return Response{OK: false, Message: "No username set - send USER first"}, nil
	default:
		return errNotInState(StateAuthorization), nil
	}

	if len(args) < 1 {
		return Response{OK: false, Message: "PASS requires password"}, nil
	}

	// The argument is everything after the verb, so passwords may contain
	// spaces.
	password := strings.Join(args, " ")
	username := sess.Username()

	ok, err := p.auth.Login(ctx, username, password)
	if err != nil {
		// Same reply as a wrong password, to avoid user enumeration.
		conn.Logger().Error("authentication error",
			"username", username,
			"error", err.Error())
		return Response{OK: false, Message: "Username or password are incorrect"}, nil
	}
	if !ok {
		conn.Logger().Info("authentication failed", "username", username)
		return Response{OK: false, Message: "Username or password are incorrect"}, nil
	}

	// Lock acquisition precedes snapshot construction.
	lock, acquired := p.locks.TryAcquire(username)
	if !acquired {
		p.collector.LockContention()
		conn.Logger().Info("mailbox in use", "username", username)
		return Response{OK: false, Message: "Mailbox already in use"}, nil
	}

	mailbox, err := NewMailbox(ctx, p.store, username)
	if err != nil {
		lock.Release()
		conn.Logger().Error("failed to snapshot mailbox",
			"username", username,
			"error", err.Error())
		return Response{OK: false, Message: "Failed to access mailbox: " + err.Error()}, nil
	}

	sess.BeginTransaction(lock, mailbox)

	conn.Logger().Info("authentication successful",
		"username", username,
		"messages", mailbox.Count())

	return Response{OK: true, Message: "Pass accepted"}, nil
}

// apopCommand accepts the APOP verb as a placeholder. True APOP digest
// verification would need a timestamp banner in the greeting; this stub
// always succeeds without authenticating anyone.
type apopCommand struct{}

func (a *apopCommand) Name() string {
	return "APOP"
}

func (a *apopCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	return Response{OK: true, Message: "APOP"}, nil
}

// quitCommand implements the QUIT command (RFC 1939). From TRANSACTION it
// enters UPDATE; the handler drives the deletion commit after the reply.
type quitCommand struct{}

func (q *quitCommand) Name() string {
	return "QUIT"
}

func (q *quitCommand) Execute(ctx context.Context, sess *Session, conn ConnectionLogger, args []string) (Response, error) {
	if sess.State() == StateTransaction {
		sess.EnterUpdate()
	}
	return Response{OK: true, Message: "Bye!"}, nil
}

// RegisterAuthCommands registers all authorization-phase commands.
func RegisterAuthCommands(auth AuthStore, locks *LockTable, store MailStore, collector metrics.Collector) {
	RegisterCommand(&userCommand{})
	RegisterCommand(&passCommand{auth: auth, locks: locks, store: store, collector: collector})
	RegisterCommand(&apopCommand{})
	RegisterCommand(&quitCommand{})
}
