package common

const (
	// CSRFCookieName is the cookie the backend sets with the anti-forgery token.
	CSRFCookieName = "mazgpt-csrf"
	// CSRFHeaderName is the header that must echo the token on mutating verbs.
	CSRFHeaderName = "x-csrf-token"

	// AccessTokenCookieName holds the short-lived session credential.
	AccessTokenCookieName = "access_token"

	// RequestIDHeaderName tags every outbound call for server-side correlation.
	RequestIDHeaderName = "X-Request-Id"
)
