package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mazgpt/mazgpt-go/internal/client/api"
	"github.com/mazgpt/mazgpt-go/internal/client/models"
	"github.com/mazgpt/mazgpt-go/internal/common"
	"github.com/mazgpt/mazgpt-go/internal/logging"
)

// State is the session lifecycle position.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

const (
	// renewalSafetyMargin is subtracted from the access token's expiry when
	// capping the renewal delay, so renewal lands before the server-side cutoff.
	renewalSafetyMargin = time.Minute
	renewalTimeout      = 15 * time.Second
)

// timeAfterFunc is a test seam for timer creation.
var timeAfterFunc = time.AfterFunc

// ProfileSync is the pair of directional profile operations the session
// lifecycle needs: Load after an identity is established, Flush before the
// identity is cleared. ChatService implements it.
type ProfileSync interface {
	Load(ctx context.Context, email string) error
	Flush(ctx context.Context, email string) error
}

// tokenExpiryReader is an optional capability of the API client: report when
// the current access credential expires.
type tokenExpiryReader interface {
	AccessTokenExpiry() (time.Time, bool)
}

// SessionService owns the current user identity and the session lifecycle:
// initialize-on-start, login, logout, refresh, and a single recurring
// renewal timer that fires before the server-side credential expires.
type SessionService struct {
	client          api.Client
	profiles        ProfileSync
	log             logging.Logger
	refreshInterval time.Duration

	mu        sync.Mutex
	state     State
	user      *models.User
	loading   bool
	lastErr   string
	timer     *time.Timer
	challenge *models.TwoFactorChallenge
}

// NewSessionService constructs a SessionService. The caller is expected to
// bind it to the gateway (api.HTTPClient.BindSessionHandler) so 401 handling
// reaches Refresh/Expire.
func NewSessionService(client api.Client, profiles ProfileSync, log logging.Logger, refreshInterval time.Duration) *SessionService {
	return &SessionService{
		client:          client,
		profiles:        profiles,
		log:             log,
		refreshInterval: refreshInterval,
		state:           StateUninitialized,
	}
}

// Initialize probes the backend identity endpoint once at startup. On a
// valid identity it adopts the session (schedules renewal, loads the user's
// profile); otherwise it degrades to the anonymous state. It never fails.
func (s *SessionService) Initialize(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	user, err := s.client.Me(ctx)
	if err != nil || user.Email == "" {
		if err != nil && !errors.Is(err, api.ErrUnauthorized) {
			s.log.Warn(ctx, "identity probe failed", "error", err)
		}
		s.mu.Lock()
		s.state = StateAnonymous
		s.user = nil
		s.mu.Unlock()
		return
	}

	s.adopt(ctx, user)
}

// Login authenticates with the backend. On success the user is set, renewal
// is scheduled, and the user's profile is loaded. When the backend demands a
// second factor the method fails with common.ErrTwoFactorRequired and the
// challenge is available via PendingChallenge.
func (s *SessionService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	s.setLoading(true)
	defer s.setLoading(false)

	res, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.setError(err.Error())
		return nil, err
	}

	if res.TwoFARequired {
		s.mu.Lock()
		s.challenge = &models.TwoFactorChallenge{Email: res.Email, Type: res.Type}
		s.mu.Unlock()
		return nil, fmt.Errorf("%w (%s)", common.ErrTwoFactorRequired, res.Type)
	}

	s.mu.Lock()
	s.challenge = nil
	s.mu.Unlock()

	s.adopt(ctx, res.User)
	return res.User, nil
}

// Logout persists the in-memory profile for the current user before clearing
// identity; reversing that order loses data. Server-side termination failures
// are logged but do not block the local logout.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()

	if user != nil {
		if err := s.profiles.Flush(ctx, user.Email); err != nil {
			s.log.Error(ctx, "profile flush on logout failed", "email", user.Email, "error", err)
		}
	}

	if err := s.client.Logout(ctx); err != nil {
		s.log.Warn(ctx, "server-side logout failed", "error", err)
	}

	s.mu.Lock()
	s.user = nil
	s.state = StateAnonymous
	s.lastErr = ""
	s.challenge = nil
	s.stopTimerLocked()
	s.mu.Unlock()
	return nil
}

// Refresh renews the server-side credential, re-queries identity, and
// reschedules the renewal timer regardless of outcome. Used both proactively
// (timer) and reactively (gateway 401).
func (s *SessionService) Refresh(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	refreshErr := s.client.RefreshToken(ctx)

	user, meErr := s.client.Me(ctx)

	s.mu.Lock()
	if meErr != nil || user.Email == "" {
		s.user = nil
		s.state = StateAnonymous
	} else {
		s.user = user
		s.state = StateAuthenticated
	}
	s.scheduleRenewalLocked()
	s.mu.Unlock()

	if refreshErr != nil {
		return fmt.Errorf("refresh token: %w", refreshErr)
	}
	if meErr != nil {
		return fmt.Errorf("identity re-query: %w", meErr)
	}
	return nil
}

// Expire implements the gateway's forced-logout path: the refreshed retry
// still came back unauthorized, so the session is dead.
func (s *SessionService) Expire(ctx context.Context) {
	s.log.Warn(ctx, "session expired, logging out")
	_ = s.Logout(ctx)

	s.mu.Lock()
	s.lastErr = "Session expired. Please log in again."
	s.mu.Unlock()
}

// AdoptSession is used after an out-of-band authentication (2FA login
// verification): it re-queries identity and, on success, adopts the session
// exactly as a plain login would.
func (s *SessionService) AdoptSession(ctx context.Context) error {
	user, err := s.client.Me(ctx)
	if err != nil || user.Email == "" {
		if err == nil {
			err = common.ErrNotAuthenticated
		}
		return fmt.Errorf("adopt session: %w", err)
	}

	s.mu.Lock()
	s.challenge = nil
	s.mu.Unlock()

	s.adopt(ctx, user)
	return nil
}

func (s *SessionService) adopt(ctx context.Context, user *models.User) {
	s.mu.Lock()
	s.user = user
	s.state = StateAuthenticated
	s.lastErr = ""
	s.scheduleRenewalLocked()
	s.mu.Unlock()

	if err := s.profiles.Load(ctx, user.Email); err != nil {
		s.log.Error(ctx, "profile load failed", "email", user.Email, "error", err)
	}
}

// scheduleRenewalLocked arms the renewal timer, cancelling any prior one so
// exactly one timer is outstanding. The delay is the configured interval,
// capped by the access token's own expiry when the client can read it.
func (s *SessionService) scheduleRenewalLocked() {
	s.stopTimerLocked()

	delay := s.refreshInterval
	if r, ok := s.client.(tokenExpiryReader); ok {
		if exp, ok := r.AccessTokenExpiry(); ok {
			if until := time.Until(exp) - renewalSafetyMargin; until > 0 && until < delay {
				delay = until
			}
		}
	}

	s.timer = timeAfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), renewalTimeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.log.Warn(ctx, "scheduled session renewal failed", "error", err)
		}
	})
}

func (s *SessionService) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *SessionService) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *SessionService) setError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// CurrentUser returns the authenticated user, or nil.
func (s *SessionService) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// State returns the session lifecycle state.
func (s *SessionService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether a login/refresh is in flight; identity is not
// reset while an operation is pending.
func (s *SessionService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the most recent auth error message, "" when none.
func (s *SessionService) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// PendingChallenge returns the login-time 2FA challenge left by a login that
// required a second factor, or nil.
func (s *SessionService) PendingChallenge() *models.TwoFactorChallenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.challenge == nil {
		return nil
	}
	ch := *s.challenge
	return &ch
}
