package api

import (
	"context"

	"github.com/mazgpt/mazgpt-go/internal/client/models"
)

// LoginResult is the outcome of a login attempt. Exactly one of the two
// shapes is populated: User on plain success, or TwoFARequired with the
// pending email and factor type when the backend demands a second factor.
type LoginResult struct {
	User          *models.User
	TwoFARequired bool
	Type          models.TwoFactorType
	Email         string
}

// TwoFAEnableResult is the backend's answer to an enrollment request.
// Secret and OtpauthURL are only present for the totp type.
type TwoFAEnableResult struct {
	Type       models.TwoFactorType `json:"type"`
	Secret     string               `json:"secret"`
	OtpauthURL string               `json:"otpauth_url"`
}

// ProjectChat is one project's message history as returned by the export
// endpoint.
type ProjectChat struct {
	ProjectID string           `json:"project_id"`
	Messages  []models.Message `json:"messages"`
}

// Client is the backend contract. Implementations carry the ambient session
// credential on every call.
type Client interface {
	Close() error

	Me(ctx context.Context) (*models.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Signup(ctx context.Context, email, password, name string) error
	ResetPassword(ctx context.Context, email string) error
	Logout(ctx context.Context) error
	RefreshToken(ctx context.Context) error

	TwoFAStatus(ctx context.Context) (*models.TwoFactorStatus, error)
	TwoFAEnable(ctx context.Context, t models.TwoFactorType) (*TwoFAEnableResult, error)
	TwoFAVerify(ctx context.Context, code string, t models.TwoFactorType) error
	TwoFADisable(ctx context.Context) error
	TwoFALoginVerify(ctx context.Context, email, code string, t models.TwoFactorType) error

	ExportData(ctx context.Context) ([]ProjectChat, error)
	SendChat(ctx context.Context, projectID, message string) (string, error)
}

// SessionHandler is the session manager surface the gateway needs when a
// call comes back unauthorized: renew the credential, or declare the session
// dead after the renewed retry failed too.
type SessionHandler interface {
	Refresh(ctx context.Context) error
	Expire(ctx context.Context)
}
