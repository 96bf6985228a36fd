package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazgpt/mazgpt-go/internal/client/api"
	"github.com/mazgpt/mazgpt-go/internal/client/models"
	"github.com/mazgpt/mazgpt-go/internal/common"
)

// fakeAdopter records AdoptSession calls from the login challenge flow.
type fakeAdopter struct {
	adopted int
	err     error
}

func (f *fakeAdopter) AdoptSession(ctx context.Context) error {
	f.adopted++
	return f.err
}

func TestTwoFactorService_TotpEnrollmentWalk(t *testing.T) {
	ctx := context.Background()

	client := &fakeClient{
		enableFn: func(ctx context.Context, typ models.TwoFactorType) (*api.TwoFAEnableResult, error) {
			return &api.TwoFAEnableResult{
				Type:       typ,
				Secret:     "JBSWY3DP",
				OtpauthURL: "otpauth://totp/MazGPT:a@b.c?secret=JBSWY3DP",
			}, nil
		},
	}
	svc := NewTwoFactorService(client, &fakeAdopter{}, testLogger())
	require.Equal(t, TwoFADisabled, svc.State())

	e, err := svc.Enroll(ctx, models.TwoFactorTOTP)
	require.NoError(t, err)
	require.Equal(t, TwoFAPendingVerify, svc.State())
	require.Equal(t, "JBSWY3DP", e.Secret)
	require.Contains(t, e.OtpauthURL, "otpauth://")

	require.NoError(t, svc.Verify(ctx, "123456"))
	require.Equal(t, TwoFAEnabled, svc.State())
	// Transient secret material must not outlive verification.
	require.Nil(t, svc.Enrollment())
}

func TestTwoFactorService_EmailEnrollmentAnnouncesCode(t *testing.T) {
	svc := NewTwoFactorService(&fakeClient{}, &fakeAdopter{}, testLogger())

	e, err := svc.Enroll(context.Background(), models.TwoFactorEmail)
	require.NoError(t, err)
	require.Empty(t, e.Secret)
	require.NotEmpty(t, e.LastMessage)
	require.Equal(t, TwoFAPendingVerify, svc.State())
}

func TestTwoFactorService_EnrollRejectsUnknownType(t *testing.T) {
	svc := NewTwoFactorService(&fakeClient{}, &fakeAdopter{}, testLogger())

	_, err := svc.Enroll(context.Background(), models.TwoFactorType("sms"))
	require.ErrorIs(t, err, common.ErrValidation)
	require.Equal(t, TwoFADisabled, svc.State())
}

func TestTwoFactorService_EnrollFailureResetsState(t *testing.T) {
	client := &fakeClient{
		enableFn: func(ctx context.Context, typ models.TwoFactorType) (*api.TwoFAEnableResult, error) {
			return nil, errBackend
		},
	}
	svc := NewTwoFactorService(client, &fakeAdopter{}, testLogger())

	_, err := svc.Enroll(context.Background(), models.TwoFactorTOTP)
	require.ErrorIs(t, err, errBackend)
	require.Equal(t, TwoFADisabled, svc.State())
}

func TestTwoFactorService_InvalidCodeKeepsPendingVerification(t *testing.T) {
	ctx := context.Background()

	client := &fakeClient{
		verifyFn: func(ctx context.Context, code string, typ models.TwoFactorType) error {
			if code != "654321" {
				return fmt.Errorf("%w: wrong code", common.ErrInvalidCode)
			}
			return nil
		},
	}
	svc := NewTwoFactorService(client, &fakeAdopter{}, testLogger())

	_, err := svc.Enroll(ctx, models.TwoFactorTOTP)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Verify(ctx, "000000"), common.ErrInvalidCode)
	require.Equal(t, TwoFAPendingVerify, svc.State())
	require.NotNil(t, svc.Enrollment())

	// A retry with the right code still succeeds.
	require.NoError(t, svc.Verify(ctx, "654321"))
	require.Equal(t, TwoFAEnabled, svc.State())
}

func TestTwoFactorService_VerifyWithoutEnrollment(t *testing.T) {
	svc := NewTwoFactorService(&fakeClient{}, &fakeAdopter{}, testLogger())

	require.ErrorIs(t, svc.Verify(context.Background(), "123456"), common.ErrValidation)
	require.ErrorIs(t, svc.Verify(context.Background(), ""), common.ErrValidation)
}

func TestTwoFactorService_Disable(t *testing.T) {
	ctx := context.Background()
	svc := NewTwoFactorService(&fakeClient{}, &fakeAdopter{}, testLogger())

	_, err := svc.Enroll(ctx, models.TwoFactorTOTP)
	require.NoError(t, err)
	require.NoError(t, svc.Verify(ctx, "123456"))

	require.NoError(t, svc.Disable(ctx))
	require.Equal(t, TwoFADisabled, svc.State())
	require.Nil(t, svc.Enrollment())
}

func TestTwoFactorService_StatusAlignsState(t *testing.T) {
	client := &fakeClient{
		statusFn: func(ctx context.Context) (*models.TwoFactorStatus, error) {
			return &models.TwoFactorStatus{Enabled: true, Type: models.TwoFactorTOTP}, nil
		},
	}
	svc := NewTwoFactorService(client, &fakeAdopter{}, testLogger())

	st, err := svc.Status(context.Background())
	require.NoError(t, err)
	require.True(t, st.Enabled)
	require.Equal(t, TwoFAEnabled, svc.State())
}

func TestTwoFactorService_LoginChallengeRetryLoop(t *testing.T) {
	ctx := context.Background()

	attempts := 0
	client := &fakeClient{
		loginVerify: func(ctx context.Context, email, code string, typ models.TwoFactorType) error {
			attempts++
			require.Equal(t, "a@b.c", email)
			if code != "222222" {
				return fmt.Errorf("%w: wrong code", common.ErrInvalidCode)
			}
			return nil
		},
	}
	adopter := &fakeAdopter{}
	svc := NewTwoFactorService(client, adopter, testLogger())

	svc.BeginLoginChallenge("a@b.c", models.TwoFactorEmail)
	require.Equal(t, TwoFALoginChallenge, svc.State())

	require.ErrorIs(t, svc.CompleteLoginChallenge(ctx, "111111"), common.ErrInvalidCode)
	require.Equal(t, TwoFALoginChallenge, svc.State())
	require.Zero(t, adopter.adopted)

	require.NoError(t, svc.CompleteLoginChallenge(ctx, "222222"))
	require.Equal(t, 2, attempts)
	require.Equal(t, 1, adopter.adopted)
	require.Nil(t, svc.Challenge())
}

func TestTwoFactorService_LoginChallengeSurvivesAdoptFailure(t *testing.T) {
	ctx := context.Background()

	adopter := &fakeAdopter{err: errBackend}
	svc := NewTwoFactorService(&fakeClient{}, adopter, testLogger())

	svc.BeginLoginChallenge("a@b.c", models.TwoFactorEmail)

	// The code is accepted but the identity re-query fails; the challenge
	// must stay open so the user can retry without restarting login.
	require.ErrorIs(t, svc.CompleteLoginChallenge(ctx, "222222"), errBackend)
	require.Equal(t, TwoFALoginChallenge, svc.State())
	require.NotNil(t, svc.Challenge())

	adopter.err = nil
	require.NoError(t, svc.CompleteLoginChallenge(ctx, "222222"))
	require.Equal(t, TwoFAEnabled, svc.State())
	require.Nil(t, svc.Challenge())
	require.Equal(t, 2, adopter.adopted)
}

func TestTwoFactorService_CancelDiscardsTransientState(t *testing.T) {
	svc := NewTwoFactorService(&fakeClient{}, &fakeAdopter{}, testLogger())

	_, err := svc.Enroll(context.Background(), models.TwoFactorTOTP)
	require.NoError(t, err)

	svc.Cancel()
	require.Equal(t, TwoFADisabled, svc.State())
	require.Nil(t, svc.Enrollment())
}
