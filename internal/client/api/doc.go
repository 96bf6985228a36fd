// Package api contains the client-side building blocks for talking to the
// MazGPT backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) covering the
//     auth lifecycle (me/login/signup/reset/logout/refresh), two-factor
//     operations, chat completion, and data export.
//  2. A concrete HTTP implementation (see HTTPClient) that carries the
//     cookie-based session credential on every call, attaches the
//     anti-forgery token on mutating verbs, and — for authenticated
//     application endpoints — performs exactly one session refresh and one
//     retry when a call comes back unauthorized, forcing a logout when the
//     retry is unauthorized too.
//
// # Error Handling
//
// Transport failures surface as ErrUnavailable; unauthorized responses as
// ErrUnauthorized; a dead session (refresh-and-retry failed) as
// common.ErrSessionExpired. Non-2xx responses carry the backend's decoded
// {detail} message via StatusError. Match with errors.Is / errors.As.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation/timeouts.
package api
