package main

import "os"

func main() {
	args := os.Args[1:]

	if len(args) > 0 && args[0] == "add-user" {
		os.Exit(runAddUser(args[1:]))
	}

	os.Exit(runServe(args))
}
