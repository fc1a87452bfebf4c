package main

import (
	"context"
	"fmt"
	"os"

	"github.com/driftmail/popd/internal/auth"
	"github.com/driftmail/popd/internal/config"
	"github.com/driftmail/popd/internal/maildir"
)

// runAddUser implements `popd add-user <username> <password>`: creates the
// credential record and initializes the user's Maildir layout.
func runAddUser(args []string) int {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return 1
	}

	if len(flags.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: popd add-user [flags] <username> <password>")
		return 1
	}
	username, password := flags.Args[0], flags.Args[1]

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		return 1
	}

	authStore, err := auth.Open(cfg.AuthDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening credential database: %v\n", err)
		return 1
	}
	defer func() {
		_ = authStore.Close()
	}()

	created, err := authStore.CreateUser(context.Background(), username, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating user %s: %v\n", username, err)
		return 1
	}
	if !created {
		fmt.Fprintf(os.Stderr, "user %s already exists\n", username)
		return 1
	}

	if err := maildir.NewStore(cfg.Maildir).InitUserMailbox(username); err != nil {
		fmt.Fprintf(os.Stderr, "error initializing mailbox for %s: %v\n", username, err)
		return 1
	}

	fmt.Printf("created user %s\n", username)
	return 0
}
