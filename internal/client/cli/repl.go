package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Attest(ctx context.Context) error
	Open(ctx context.Context, noteID string) error
	Redeem(ctx context.Context, noteID string) error
	Status(ctx context.Context, verificationID string) error
}

// runREPL starts a simple read–eval–print loop.
//
// Commands:
//
//	help                 show available commands
//	login | logout       load or forget the signing key
//	whoami               print the current npub
//	attest               issue an attestation (interactive)
//	open <noteId>        decrypt a received note
//	redeem <noteId>      decrypt a received note and verify its token
//	status <id>          show a verification
//	exit | quit          leave the program
//
// Handlers print their own errors; the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pop %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: attest, open <noteId>, redeem <noteId>, status <id>, whoami, logout, exit")
			} else {
				printlnFn("Available commands: login, status <id>, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "attest":
			_ = a.Attest(ctx)

		case "open", "redeem", "status":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				continue
			}
			switch cmd {
			case "open":
				_ = a.Open(ctx, args[0])
			case "redeem":
				_ = a.Redeem(ctx, args[0])
			default:
				_ = a.Status(ctx, args[0])
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
