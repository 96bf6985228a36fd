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
	Signup(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Projects(ctx context.Context) error
	CreateProject(ctx context.Context, args []string) error
	RenameProject(ctx context.Context, args []string) error
	DeleteProject(ctx context.Context, args []string) error
	ArchiveProject(ctx context.Context, args []string) error
	SelectProject(ctx context.Context, args []string) error
	Send(ctx context.Context, args []string) error
	Messages(ctx context.Context) error
	History(ctx context.Context) error
	Search(ctx context.Context, args []string) error
	Export(ctx context.Context) error
	Import(ctx context.Context) error
	NewChat(ctx context.Context) error
	Prefs(ctx context.Context, args []string) error
	TwoFA(ctx context.Context, args []string) error
}

// guard runs one command handler and turns a panic into a printed diagnostic,
// so a faulty handler never takes down the loop.
func guard(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			printlnFn(fmt.Sprintf("command %s failed: %v", name, r))
		}
	}()
	if err := fn(); err != nil {
		printlnFn("Error:", err.Error())
	}
}

// runREPL starts a simple read–eval–print loop for the MazGPT CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                — show available commands
//	  - signup              — create an account
//	  - login               — authenticate (may continue into a 2FA prompt)
//	  - reset-password      — request a password reset email
//	  - exit | quit         — leave the program
//
//	Logged in:
//	  - whoami              — show the current user
//	  - projects            — list projects (active one marked)
//	  - create <name>       — create a project and switch to it
//	  - rename <id> <name>  — rename a project
//	  - delete <id>         — delete a project and its history
//	  - archive <id>        — archive a project
//	  - select <id>         — switch the active project
//	  - send <text>         — send a chat message
//	  - (m)essages          — print the active project's history
//	  - history             — re-fetch the active history from the server
//	  - search <text>       — search the active history
//	  - export              — print the active history as JSON
//	  - import              — paste a JSON array to replace the history
//	  - newchat             — clear the active history
//	  - prefs [key value]   — show or change preferences
//	  - 2fa <subcommand>    — status | enable | verify | disable
//	  - logout              — log out (profile is saved first)
//	  - exit | quit         — leave the program
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("maz> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, projects, create, rename, delete, archive, select, send, (m)essages, history, search, export, import, newchat, prefs, 2fa, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, reset-password, exit")
			}

		case "signup":
			guard(cmd, func() error { return a.Signup(ctx) })

		case "login":
			guard(cmd, func() error { return a.Login(ctx) })

		case "reset-password":
			guard(cmd, func() error { return a.ResetPassword(ctx) })

		case "whoami":
			guard(cmd, func() error { return a.WhoAmI(ctx) })

		case "projects":
			guard(cmd, func() error { return a.Projects(ctx) })

		case "create":
			guard(cmd, func() error { return a.CreateProject(ctx, args) })

		case "rename":
			guard(cmd, func() error { return a.RenameProject(ctx, args) })

		case "delete":
			guard(cmd, func() error { return a.DeleteProject(ctx, args) })

		case "archive":
			guard(cmd, func() error { return a.ArchiveProject(ctx, args) })

		case "select":
			guard(cmd, func() error { return a.SelectProject(ctx, args) })

		case "send":
			guard(cmd, func() error { return a.Send(ctx, args) })

		case "m", "messages":
			guard(cmd, func() error { return a.Messages(ctx) })

		case "history":
			guard(cmd, func() error { return a.History(ctx) })

		case "search":
			guard(cmd, func() error { return a.Search(ctx, args) })

		case "export":
			guard(cmd, func() error { return a.Export(ctx) })

		case "import":
			guard(cmd, func() error { return a.Import(ctx) })

		case "newchat":
			guard(cmd, func() error { return a.NewChat(ctx) })

		case "prefs":
			guard(cmd, func() error { return a.Prefs(ctx, args) })

		case "2fa":
			guard(cmd, func() error { return a.TwoFA(ctx, args) })

		case "logout":
			guard(cmd, func() error { return a.Logout(ctx) })

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
