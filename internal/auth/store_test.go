package auth

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreCreateAndLogin(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateUser(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if !created {
		t.Fatal("CreateUser should report a new user")
	}

	ok, err := store.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !ok {
		t.Error("login with correct password must succeed")
	}

	ok, err = store.Login(ctx, "alice", "wrong")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if ok {
		t.Error("login with wrong password must fail")
	}
}

func TestStoreUnknownUser(t *testing.T) {
	store := openTestStore(t)

	ok, err := store.Login(context.Background(), "nobody", "secret")
	if err != nil {
		t.Fatalf("Login for unknown user must not error, got %v", err)
	}
	if ok {
		t.Error("unknown user must not log in")
	}
}

func TestStoreDuplicateUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, "alice", "first"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	created, err := store.CreateUser(ctx, "alice", "second")
	if err != nil {
		t.Fatalf("CreateUser duplicate: %v", err)
	}
	if created {
		t.Error("duplicate CreateUser must report false")
	}

	// The original password still works; the duplicate attempt changed nothing.
	ok, err := store.Login(ctx, "alice", "first")
	if err != nil || !ok {
		t.Errorf("Login with original password = %v, %v; want true", ok, err)
	}
	if ok, _ := store.Login(ctx, "alice", "second"); ok {
		t.Error("duplicate CreateUser must not replace the password")
	}
}

func TestStoreEmptyUsername(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.CreateUser(context.Background(), "", "secret"); err == nil {
		t.Error("CreateUser with empty username must fail")
	}
}
