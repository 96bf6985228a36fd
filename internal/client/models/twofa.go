package models

// TwoFactorType selects the second factor: an authenticator app or an
// emailed code.
type TwoFactorType string

const (
	TwoFactorTOTP  TwoFactorType = "totp"
	TwoFactorEmail TwoFactorType = "email"
)

// TwoFactorStatus is the server-authoritative 2FA state for the current user.
// The client only caches the latest fetched value.
type TwoFactorStatus struct {
	Enabled bool          `json:"enabled"`
	Type    TwoFactorType `json:"type,omitempty"`
}

// TwoFactorEnrollment holds the transient material of an in-progress setup
// flow. It must be discarded on success or cancel; in particular the secret
// and otpauth URL must not outlive verification.
type TwoFactorEnrollment struct {
	Type        TwoFactorType
	Secret      string
	OtpauthURL  string
	LastMessage string
}

// TwoFactorChallenge describes a login that was interrupted because the
// backend requires a second factor.
type TwoFactorChallenge struct {
	Email string
	Type  TwoFactorType
}
