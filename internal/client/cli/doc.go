// Package cli provides the interactive MazGPT command-line client.
//
// It wires configuration, the local profile store, the HTTP gateway, and an
// interactive REPL. Typical flow: probe the existing session on startup,
// prompt for credentials when needed (continuing into a 2FA code prompt when
// the backend demands one), and execute user commands against the active
// project's chat.
//
// Key features:
//   - Login / Signup / Logout (the profile is saved before identity clears)
//   - Projects: create, rename, delete, archive, select
//   - Chat: send, history, search, export, import, new chat
//   - Preferences and 2FA management
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// Each command runs behind a recover boundary so a faulty handler cannot
// take the loop down.
package cli
