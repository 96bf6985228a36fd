package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mazgpt/mazgpt-go/internal/client/api"
	"github.com/mazgpt/mazgpt-go/internal/client/models"
	"github.com/mazgpt/mazgpt-go/internal/client/services"
	"github.com/mazgpt/mazgpt-go/internal/common"
	"github.com/mazgpt/mazgpt-go/internal/logging"
)

// stubInputs feeds scripted answers to the interactive prompts, one per call.
func stubInputs(t *testing.T, answers []string, password string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		a := answers[i]
		i++
		return a, nil
	}
	getPassword = func(_ io.Writer) (string, error) { return password, nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

// stubClient is the minimal backend double the CLI flows need.
type stubClient struct {
	user      *models.User
	twoFAType models.TwoFactorType
	goodCode  string
	verified  bool
}

func (s *stubClient) Close() error { return nil }

func (s *stubClient) Me(ctx context.Context) (*models.User, error) {
	if s.twoFAType != "" && !s.verified {
		return nil, api.ErrUnauthorized
	}
	return s.user, nil
}

func (s *stubClient) Login(ctx context.Context, email, password string) (*api.LoginResult, error) {
	if s.twoFAType != "" {
		return &api.LoginResult{TwoFARequired: true, Type: s.twoFAType, Email: email}, nil
	}
	return &api.LoginResult{User: s.user}, nil
}

func (s *stubClient) Signup(ctx context.Context, email, password, name string) error { return nil }
func (s *stubClient) ResetPassword(ctx context.Context, email string) error          { return nil }
func (s *stubClient) Logout(ctx context.Context) error                               { return nil }
func (s *stubClient) RefreshToken(ctx context.Context) error                         { return nil }

func (s *stubClient) TwoFAStatus(ctx context.Context) (*models.TwoFactorStatus, error) {
	return &models.TwoFactorStatus{}, nil
}

func (s *stubClient) TwoFAEnable(ctx context.Context, t models.TwoFactorType) (*api.TwoFAEnableResult, error) {
	return &api.TwoFAEnableResult{Type: t}, nil
}

func (s *stubClient) TwoFAVerify(ctx context.Context, code string, t models.TwoFactorType) error {
	return nil
}

func (s *stubClient) TwoFADisable(ctx context.Context) error { return nil }

func (s *stubClient) TwoFALoginVerify(ctx context.Context, email, code string, t models.TwoFactorType) error {
	if code != s.goodCode {
		return fmt.Errorf("%w: wrong code", common.ErrInvalidCode)
	}
	s.verified = true
	return nil
}

func (s *stubClient) ExportData(ctx context.Context) ([]api.ProjectChat, error) { return nil, nil }

func (s *stubClient) SendChat(ctx context.Context, projectID, message string) (string, error) {
	return "ok", nil
}

// memRepo is an in-memory profile store for CLI tests.
type memRepo struct {
	profiles map[string]*models.Profile
}

func (r *memRepo) Save(ctx context.Context, email string, p *models.Profile) error {
	r.profiles[email] = p
	return nil
}

func (r *memRepo) Load(ctx context.Context, email string) (*models.Profile, error) {
	return r.profiles[email], nil
}

func (r *memRepo) Clear(ctx context.Context, email string) error {
	delete(r.profiles, email)
	return nil
}

func newTestApp(t *testing.T, client api.Client) *App {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	chat := services.NewChatService(client, &memRepo{profiles: map[string]*models.Profile{}}, log)
	session := services.NewSessionService(client, chat, log, time.Hour)
	twofa := services.NewTwoFactorService(client, session, log)
	return &App{
		log:     log,
		session: session,
		chat:    chat,
		twofa:   twofa,
		reader:  bufio.NewReader(strings.NewReader("")),
	}
}

func TestAppLogin_Success(t *testing.T) {
	silencePrintln(t)
	stubInputs(t, []string{"alice@example.org"}, "secret")

	client := &stubClient{user: &models.User{Email: "alice@example.org", Name: "Alice"}}
	a := newTestApp(t, client)

	require.False(t, a.isLoggedIn())
	require.NoError(t, a.Login(context.Background()))
	require.True(t, a.isLoggedIn())
	require.Equal(t, "alice@example.org", a.session.CurrentUser().Email)

	// A fresh profile gets the welcome seed.
	require.Len(t, a.chat.Messages(), 3)
}

func TestAppLogin_TwoFactorChallengeRetries(t *testing.T) {
	silencePrintln(t)
	// Email prompt, then a wrong code, then the right one.
	stubInputs(t, []string{"alice@example.org", "000000", "424242"}, "secret")

	client := &stubClient{
		user:      &models.User{Email: "alice@example.org"},
		twoFAType: models.TwoFactorEmail,
		goodCode:  "424242",
	}
	a := newTestApp(t, client)

	require.NoError(t, a.Login(context.Background()))
	require.True(t, a.isLoggedIn())
	require.Equal(t, services.TwoFAEnabled, a.twofa.State())
}

func TestAppLogin_TwoFactorChallengeCancel(t *testing.T) {
	silencePrintln(t)
	stubInputs(t, []string{"alice@example.org", ""}, "secret")

	client := &stubClient{
		user:      &models.User{Email: "alice@example.org"},
		twoFAType: models.TwoFactorTOTP,
		goodCode:  "424242",
	}
	a := newTestApp(t, client)

	require.NoError(t, a.Login(context.Background()))
	require.False(t, a.isLoggedIn())
	require.Equal(t, services.TwoFADisabled, a.twofa.State())
}

func TestAppGetStatus(t *testing.T) {
	client := &stubClient{user: &models.User{Email: "alice@example.org"}}
	a := newTestApp(t, client)

	require.Equal(t, "(anonymous)", a.getStatus())

	silencePrintln(t)
	stubInputs(t, []string{"alice@example.org"}, "secret")
	require.NoError(t, a.Login(context.Background()))
	require.Equal(t, "(alice@example.org:default)", a.getStatus())
}
