package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/mazgpt/mazgpt-go/internal/client/api"
	"github.com/mazgpt/mazgpt-go/internal/client/models"
	"github.com/mazgpt/mazgpt-go/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeClient implements api.Client. Unset func fields mean a successful
// no-op; call counters are tracked per method where tests need them.
type fakeClient struct {
	meFn        func(ctx context.Context) (*models.User, error)
	loginFn     func(ctx context.Context, email, password string) (*api.LoginResult, error)
	refreshFn   func(ctx context.Context) error
	logoutFn    func(ctx context.Context) error
	sendChatFn  func(ctx context.Context, projectID, message string) (string, error)
	exportFn    func(ctx context.Context) ([]api.ProjectChat, error)
	statusFn    func(ctx context.Context) (*models.TwoFactorStatus, error)
	enableFn    func(ctx context.Context, t models.TwoFactorType) (*api.TwoFAEnableResult, error)
	verifyFn    func(ctx context.Context, code string, t models.TwoFactorType) error
	disableFn   func(ctx context.Context) error
	loginVerify func(ctx context.Context, email, code string, t models.TwoFactorType) error

	meCalls      int
	refreshCalls int
	logoutCalls  int
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) Me(ctx context.Context) (*models.User, error) {
	f.meCalls++
	if f.meFn != nil {
		return f.meFn(ctx)
	}
	return nil, api.ErrUnauthorized
}

func (f *fakeClient) Login(ctx context.Context, email, password string) (*api.LoginResult, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, email, password)
	}
	return &api.LoginResult{User: &models.User{Email: email}}, nil
}

func (f *fakeClient) Signup(ctx context.Context, email, password, name string) error { return nil }
func (f *fakeClient) ResetPassword(ctx context.Context, email string) error          { return nil }

func (f *fakeClient) Logout(ctx context.Context) error {
	f.logoutCalls++
	if f.logoutFn != nil {
		return f.logoutFn(ctx)
	}
	return nil
}

func (f *fakeClient) RefreshToken(ctx context.Context) error {
	f.refreshCalls++
	if f.refreshFn != nil {
		return f.refreshFn(ctx)
	}
	return nil
}

func (f *fakeClient) TwoFAStatus(ctx context.Context) (*models.TwoFactorStatus, error) {
	if f.statusFn != nil {
		return f.statusFn(ctx)
	}
	return &models.TwoFactorStatus{}, nil
}

func (f *fakeClient) TwoFAEnable(ctx context.Context, t models.TwoFactorType) (*api.TwoFAEnableResult, error) {
	if f.enableFn != nil {
		return f.enableFn(ctx, t)
	}
	return &api.TwoFAEnableResult{Type: t}, nil
}

func (f *fakeClient) TwoFAVerify(ctx context.Context, code string, t models.TwoFactorType) error {
	if f.verifyFn != nil {
		return f.verifyFn(ctx, code, t)
	}
	return nil
}

func (f *fakeClient) TwoFADisable(ctx context.Context) error {
	if f.disableFn != nil {
		return f.disableFn(ctx)
	}
	return nil
}

func (f *fakeClient) TwoFALoginVerify(ctx context.Context, email, code string, t models.TwoFactorType) error {
	if f.loginVerify != nil {
		return f.loginVerify(ctx, email, code, t)
	}
	return nil
}

func (f *fakeClient) ExportData(ctx context.Context) ([]api.ProjectChat, error) {
	if f.exportFn != nil {
		return f.exportFn(ctx)
	}
	return nil, nil
}

func (f *fakeClient) SendChat(ctx context.Context, projectID, message string) (string, error) {
	if f.sendChatFn != nil {
		return f.sendChatFn(ctx, projectID, message)
	}
	return "ok", nil
}

// fakeRepo is an in-memory profile store mirroring the repository contract:
// absent or corrupt blobs load as (nil, nil).
type fakeRepo struct {
	mu    sync.Mutex
	blobs map[string][]byte
	saves int
	err   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{blobs: map[string][]byte{}}
}

func (r *fakeRepo) Save(ctx context.Context, email string, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	r.blobs[email] = data
	r.saves++
	return nil
}

func (r *fakeRepo) Load(ctx context.Context, email string) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	data, ok := r.blobs[email]
	if !ok {
		return nil, nil
	}
	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, nil
	}
	return &p, nil
}

func (r *fakeRepo) Clear(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blobs, email)
	return nil
}

// fakeSync records ProfileSync calls for session tests.
type fakeSync struct {
	loaded  []string
	flushed []string
	order   []string
	loadErr error
}

func (s *fakeSync) Load(ctx context.Context, email string) error {
	s.loaded = append(s.loaded, email)
	s.order = append(s.order, "load:"+email)
	return s.loadErr
}

func (s *fakeSync) Flush(ctx context.Context, email string) error {
	s.flushed = append(s.flushed, email)
	s.order = append(s.order, "flush:"+email)
	return nil
}

var errBackend = errors.New("backend unavailable")
