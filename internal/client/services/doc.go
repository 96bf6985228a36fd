// Package services contains the application services behind the MazGPT CLI:
//
//   - SessionService — owns the current user identity, the login/logout/
//     refresh lifecycle, and the proactive renewal timer; also serves as the
//     gateway's SessionHandler for the 401 refresh-and-retry policy.
//   - ChatService — owns the project set, each project's message history,
//     and user preferences; every committed mutation is written through to
//     the local profile store under the current user's email.
//   - TwoFactorService — drives 2FA enrollment, verification, disablement,
//     and the login-time challenge as a small state machine.
//
// All methods honor context cancellation/timeouts on network operations.
package services
