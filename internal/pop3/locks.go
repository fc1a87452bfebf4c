package pop3

import "sync"

// LockTable grants exclusive mailbox possession: at most one live session
// holds the lock for a given username. Acquisition is non-blocking and
// fail-fast; a concurrent login for an in-use mailbox is refused immediately
// rather than queued.
type LockTable struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLockTable creates an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{held: make(map[string]struct{})}
}

// TryAcquire attempts to take the mailbox lock for username. Returns the
// lock token and true on success, or nil and false if another session holds
// the lock.
func (t *LockTable) TryAcquire(username string) (*LockToken, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, inUse := t.held[username]; inUse {
		return nil, false
	}
	t.held[username] = struct{}{}
	return &LockToken{table: t, username: username}, true
}

// Held reports whether the mailbox lock for username is currently taken.
func (t *LockTable) Held(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, inUse := t.held[username]
	return inUse
}

func (t *LockTable) release(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.held, username)
}

// LockToken represents exclusive possession of one user's mailbox. Release
// must be called on every session exit path; it is safe to call more than
// once.
type LockToken struct {
	table    *LockTable
	username string
	once     sync.Once
}

// Username returns the username the token locks.
func (lt *LockToken) Username() string {
	return lt.username
}

// Release returns the mailbox to the free set. Releasing an already-released
// token is a no-op.
func (lt *LockToken) Release() {
	lt.once.Do(func() {
		lt.table.release(lt.username)
	})
}
