package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mazgpt/mazgpt-go/internal/client/api"
	"github.com/mazgpt/mazgpt-go/internal/client/models"
	"github.com/mazgpt/mazgpt-go/internal/common"
	"github.com/mazgpt/mazgpt-go/internal/logging"
)

// TwoFactorState is the controller's position in the enrollment or login
// challenge flow.
type TwoFactorState string

const (
	TwoFADisabled       TwoFactorState = "disabled"
	TwoFAEnrolling      TwoFactorState = "enrolling"
	TwoFAPendingVerify  TwoFactorState = "pending_verification"
	TwoFAEnabled        TwoFactorState = "enabled"
	TwoFALoginChallenge TwoFactorState = "login_challenge"
)

// sessionAdopter is the slice of the session manager the controller needs
// after a successful login-time verification.
type sessionAdopter interface {
	AdoptSession(ctx context.Context) error
}

// TwoFactorService drives second-factor enrollment, verification and
// disablement, plus the login-time challenge. The server owns the
// authoritative enabled/disabled state; this controller only tracks the flow
// position and the transient enrollment material, which must not outlive
// verification.
type TwoFactorService struct {
	client  api.Client
	session sessionAdopter
	log     logging.Logger

	mu         sync.Mutex
	state      TwoFactorState
	enrollment *models.TwoFactorEnrollment
	challenge  *models.TwoFactorChallenge
}

func NewTwoFactorService(client api.Client, session sessionAdopter, log logging.Logger) *TwoFactorService {
	return &TwoFactorService{
		client:  client,
		session: session,
		log:     log,
		state:   TwoFADisabled,
	}
}

// Status fetches the server-side 2FA status and aligns the local state with
// it, unless a flow is in progress.
func (t *TwoFactorService) Status(ctx context.Context) (*models.TwoFactorStatus, error) {
	st, err := t.client.TwoFAStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("2fa status: %w", err)
	}

	t.mu.Lock()
	if t.state == TwoFADisabled || t.state == TwoFAEnabled {
		if st.Enabled {
			t.state = TwoFAEnabled
		} else {
			t.state = TwoFADisabled
		}
	}
	t.mu.Unlock()
	return st, nil
}

// Enroll starts setup for the given factor type. For totp the backend
// returns the shared secret and otpauth URL, retained as transient
// enrollment material until Verify or Cancel; for email a code is sent to
// the user's address.
func (t *TwoFactorService) Enroll(ctx context.Context, typ models.TwoFactorType) (*models.TwoFactorEnrollment, error) {
	if typ != models.TwoFactorTOTP && typ != models.TwoFactorEmail {
		return nil, fmt.Errorf("%w: unknown 2fa type %q", common.ErrValidation, typ)
	}

	t.mu.Lock()
	if t.state == TwoFAEnabled {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: 2fa is already enabled", common.ErrValidation)
	}
	t.state = TwoFAEnrolling
	t.mu.Unlock()

	res, err := t.client.TwoFAEnable(ctx, typ)
	if err != nil {
		t.mu.Lock()
		t.state = TwoFADisabled
		t.mu.Unlock()
		return nil, fmt.Errorf("2fa enroll: %w", err)
	}

	e := &models.TwoFactorEnrollment{
		Type:       typ,
		Secret:     res.Secret,
		OtpauthURL: res.OtpauthURL,
	}
	if typ == models.TwoFactorEmail {
		e.LastMessage = "A verification code has been sent to your email."
	}

	t.mu.Lock()
	t.state = TwoFAPendingVerify
	t.enrollment = e
	t.mu.Unlock()
	return e, nil
}

// Verify submits the enrollment code. On success 2FA is enabled and the
// transient secret material is discarded; on failure the flow stays pending
// so the user can retry.
func (t *TwoFactorService) Verify(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: code is required", common.ErrValidation)
	}

	t.mu.Lock()
	if t.state != TwoFAPendingVerify || t.enrollment == nil {
		t.mu.Unlock()
		return fmt.Errorf("%w: no enrollment awaiting verification", common.ErrValidation)
	}
	typ := t.enrollment.Type
	t.mu.Unlock()

	if err := t.client.TwoFAVerify(ctx, code, typ); err != nil {
		return fmt.Errorf("2fa verify: %w", err)
	}

	t.mu.Lock()
	t.state = TwoFAEnabled
	t.enrollment = nil
	t.mu.Unlock()
	t.log.Info(ctx, "2fa enabled", "type", typ)
	return nil
}

// Disable turns off 2FA server-side and resets the local flow.
func (t *TwoFactorService) Disable(ctx context.Context) error {
	if err := t.client.TwoFADisable(ctx); err != nil {
		return fmt.Errorf("2fa disable: %w", err)
	}

	t.mu.Lock()
	t.state = TwoFADisabled
	t.enrollment = nil
	t.mu.Unlock()
	t.log.Info(ctx, "2fa disabled")
	return nil
}

// BeginLoginChallenge records a login interrupted by a second-factor demand.
func (t *TwoFactorService) BeginLoginChallenge(email string, typ models.TwoFactorType) {
	t.mu.Lock()
	t.state = TwoFALoginChallenge
	t.challenge = &models.TwoFactorChallenge{Email: email, Type: typ}
	t.mu.Unlock()
}

// CompleteLoginChallenge submits the login-time code. On success the session
// manager adopts the now-established session; on failure the challenge stays
// open for another attempt.
func (t *TwoFactorService) CompleteLoginChallenge(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: code is required", common.ErrValidation)
	}

	t.mu.Lock()
	if t.state != TwoFALoginChallenge || t.challenge == nil {
		t.mu.Unlock()
		return fmt.Errorf("%w: no login challenge in progress", common.ErrValidation)
	}
	ch := *t.challenge
	t.mu.Unlock()

	if err := t.client.TwoFALoginVerify(ctx, ch.Email, code, ch.Type); err != nil {
		return fmt.Errorf("2fa login verify: %w", err)
	}

	// The challenge stays open until the identity is actually established, so
	// a transient adopt failure can be retried without restarting login.
	if err := t.session.AdoptSession(ctx); err != nil {
		return fmt.Errorf("adopt session after 2fa: %w", err)
	}

	t.mu.Lock()
	t.state = TwoFAEnabled
	t.challenge = nil
	t.mu.Unlock()
	return nil
}

// Cancel discards any in-progress flow and its transient material.
func (t *TwoFactorService) Cancel() {
	t.mu.Lock()
	t.state = TwoFADisabled
	t.enrollment = nil
	t.challenge = nil
	t.mu.Unlock()
}

// State returns the controller's flow position.
func (t *TwoFactorService) State() TwoFactorState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Enrollment returns a copy of the transient enrollment material, or nil.
func (t *TwoFactorService) Enrollment() *models.TwoFactorEnrollment {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enrollment == nil {
		return nil
	}
	e := *t.enrollment
	return &e
}

// Challenge returns a copy of the pending login challenge, or nil.
func (t *TwoFactorService) Challenge() *models.TwoFactorChallenge {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.challenge == nil {
		return nil
	}
	ch := *t.challenge
	return &ch
}
