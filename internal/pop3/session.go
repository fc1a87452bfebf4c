package pop3

// State represents the current state in the POP3 state machine.
type State int

const (
	// StateAuthorization is the initial state where authentication is required.
	StateAuthorization State = iota

	// StateAuthorizationUser is AUTHORIZATION with a pending username from
	// USER, awaiting PASS.
	StateAuthorizationUser

	// StateTransaction is the state after successful authentication.
	StateTransaction

	// StateUpdate is the state after QUIT from Transaction, transient while
	// deletions are committed.
	StateUpdate
)

// String returns the state name as used in protocol error messages.
func (s State) String() string {
	switch s {
	case StateAuthorization, StateAuthorizationUser:
		return "Authorization"
	case StateTransaction:
		return "Transaction"
	case StateUpdate:
		return "Update"
	default:
		return "Unknown"
	}
}

// Session represents one POP3 connection's state.
//
// Invariants: the lock token is present iff the state is TRANSACTION or
// UPDATE; the mailbox view is present iff the state is TRANSACTION or
// UPDATE; the username is empty iff the state is plain AUTHORIZATION.
type Session struct {
	state    State
	username string
	lock     *LockToken
	mailbox  *Mailbox
}

// NewSession creates a session in the AUTHORIZATION state.
func NewSession() *Session {
	return &Session{state: StateAuthorization}
}

// State returns the current POP3 state.
func (s *Session) State() State {
	return s.state
}

// Username returns the pending or authenticated username.
func (s *Session) Username() string {
	return s.username
}

// SetUser records the username from USER and moves to the with-user
// sub-state. A repeated USER replaces the pending name.
func (s *Session) SetUser(username string) {
	s.username = username
	s.state = StateAuthorizationUser
}

// BeginTransaction transitions to TRANSACTION after a successful PASS,
// taking ownership of the mailbox lock and the snapshot view.
func (s *Session) BeginTransaction(lock *LockToken, mailbox *Mailbox) {
	s.lock = lock
	s.mailbox = mailbox
	s.state = StateTransaction
}

// EnterUpdate transitions to UPDATE; only QUIT in TRANSACTION does this.
func (s *Session) EnterUpdate() {
	if s.state == StateTransaction {
		s.state = StateUpdate
	}
}

// Mailbox returns the session's mailbox view, or nil outside TRANSACTION
// and UPDATE.
func (s *Session) Mailbox() *Mailbox {
	return s.mailbox
}

// Lock returns the session's mailbox lock token, or nil if not held.
func (s *Session) Lock() *LockToken {
	return s.lock
}

// Cleanup releases the session's resources. It must run on every session
// exit path; releasing twice is safe.
func (s *Session) Cleanup() {
	if s.lock != nil {
		s.lock.Release()
		s.lock = nil
	}
	s.mailbox = nil
}
