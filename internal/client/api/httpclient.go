package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mazgpt/mazgpt-go/internal/client/models"
	"github.com/mazgpt/mazgpt-go/internal/common"
	"github.com/mazgpt/mazgpt-go/internal/logging"
)

const requestTimeout = 30 * time.Second

var mutatingVerbs = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// HTTPClient implements Client over the backend's JSON/cookie HTTP API.
//
// A cookie jar carries the session credential (and the CSRF cookie) across
// calls. Authenticated application endpoints go through the
// refresh-once-then-expire retry policy; auth lifecycle endpoints never do,
// which also keeps the session manager's own refresh calls out of the retry
// path.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	log     logging.Logger

	mu       sync.Mutex
	sessions SessionHandler
}

func NewHTTPClient(baseURL string, log logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: scheme and host are required", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &HTTPClient{
		baseURL: u,
		http:    &http.Client{Jar: jar, Timeout: requestTimeout},
		log:     log,
	}, nil
}

// BindSessionHandler wires the session manager in after construction; the
// manager itself depends on this client, so the two are tied together here
// rather than in the constructor.
func (c *HTTPClient) BindSessionHandler(h SessionHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = h
}

func (c *HTTPClient) sessionHandler() SessionHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// csrfToken returns the anti-forgery token from the jar, or "" when the
// backend has not issued one yet.
func (c *HTTPClient) csrfToken() string {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == common.CSRFCookieName {
			return ck.Value
		}
	}
	return ""
}

// AccessTokenExpiry reports the expiry of the access-token cookie when it is
// a readable JWT. The token is parsed unverified: the client only needs the
// timestamp, the server remains the authority on validity.
func (c *HTTPClient) AccessTokenExpiry() (time.Time, bool) {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name != common.AccessTokenCookieName {
			continue
		}
		tok, _, err := jwt.NewParser().ParseUnverified(ck.Value, jwt.MapClaims{})
		if err != nil {
			return time.Time{}, false
		}
		exp, err := tok.Claims.GetExpirationTime()
		if err != nil || exp == nil {
			return time.Time{}, false
		}
		return exp.Time, true
	}
	return time.Time{}, false
}

// send builds and executes a single request. Bodies are marshalled fresh on
// every call so a retry reissues identical parameters.
func (c *HTTPClient) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	if mutatingVerbs[method] {
		if token := c.csrfToken(); token != "" {
			req.Header.Set(common.CSRFHeaderName, token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w (%v)", method, path, ErrUnavailable, err)
	}
	c.log.Debug(ctx, "request", "method", method, "path", path, "status", resp.StatusCode)
	return resp, nil
}

// statusError consumes the response body and converts a non-2xx response
// into a StatusError carrying the backend's {detail} message, if any.
func statusError(resp *http.Response) *StatusError {
	defer resp.Body.Close()
	se := &StatusError{Code: resp.StatusCode}

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		se.Detail = body.Detail
	}
	return se
}

func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doJSON executes a call outside the retry policy (auth lifecycle endpoints).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	return decodeJSON(resp, out)
}

// doAuthed executes a call under the single-retry policy: an unauthorized
// response triggers exactly one session refresh and one retry with identical
// parameters; a second unauthorized response expires the session and fails
// with common.ErrSessionExpired. Callers must not retry further.
func (c *HTTPClient) doAuthed(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = statusError(resp) // drain and close

		h := c.sessionHandler()
		if h == nil {
			return &StatusError{Code: http.StatusUnauthorized}
		}

		if err := h.Refresh(ctx); err != nil {
			c.log.Warn(ctx, "session refresh after 401 failed", "path", path, "error", err)
		}

		resp, err = c.send(ctx, method, path, body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			_ = statusError(resp)
			h.Expire(ctx)
			return fmt.Errorf("%s %s: %w", method, path, common.ErrSessionExpired)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	return decodeJSON(resp, out)
}

// authFailure rewrites a client-level backend rejection into an
// ErrInvalidCredentials error carrying the server's detail message, leaving
// transport and server faults untouched.
func authFailure(err error, fallback string) error {
	var se *StatusError
	if errors.As(err, &se) && se.Code < 500 {
		detail := se.Detail
		if detail == "" {
			detail = fallback
		}
		return fmt.Errorf("%w: %s", common.ErrInvalidCredentials, detail)
	}
	return err
}

// challengeFailure does the same for 2FA code rejections.
func challengeFailure(err error) error {
	var se *StatusError
	if errors.As(err, &se) && se.Code < 500 {
		if se.Detail != "" {
			return fmt.Errorf("%w: %s", common.ErrInvalidCode, se.Detail)
		}
		return common.ErrInvalidCode
	}
	return err
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type loginResponse struct {
	Ok            *bool                `json:"ok"`
	TwoFARequired bool                 `json:"2fa_required"`
	Type          models.TwoFactorType `json:"type"`
	Email         string               `json:"email"`
	User          *models.User         `json:"user"`
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var lr loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}, &lr)
	if err != nil {
		return nil, authFailure(err, "Invalid credentials")
	}

	// The backend answers 200 with {ok:false, 2fa_required:true, ...} when a
	// second factor is needed.
	if lr.TwoFARequired {
		return &LoginResult{TwoFARequired: true, Type: lr.Type, Email: lr.Email}, nil
	}
	if lr.User == nil || lr.User.Email == "" {
		return nil, fmt.Errorf("login: malformed response: %w", ErrUnavailable)
	}
	return &LoginResult{User: lr.User}, nil
}

func (c *HTTPClient) Signup(ctx context.Context, email, password, name string) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/signup",
		map[string]string{"email": email, "password": password, "name": name}, nil)
	if err != nil {
		return authFailure(err, "Signup failed")
	}
	return nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email string) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/reset-password",
		map[string]string{"email": email}, nil)
	if err != nil {
		return authFailure(err, "Reset failed")
	}
	return nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *HTTPClient) RefreshToken(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/refresh-token", nil, nil)
}

func (c *HTTPClient) TwoFAStatus(ctx context.Context) (*models.TwoFactorStatus, error) {
	var st models.TwoFactorStatus
	if err := c.doAuthed(ctx, http.MethodGet, "/auth/2fa/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) TwoFAEnable(ctx context.Context, t models.TwoFactorType) (*TwoFAEnableResult, error) {
	var res TwoFAEnableResult
	err := c.doAuthed(ctx, http.MethodPost, "/auth/2fa/enable",
		map[string]models.TwoFactorType{"type": t}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) TwoFAVerify(ctx context.Context, code string, t models.TwoFactorType) error {
	err := c.doAuthed(ctx, http.MethodPost, "/auth/2fa/verify",
		map[string]any{"code": code, "type": t}, nil)
	if err != nil {
		return challengeFailure(err)
	}
	return nil
}

func (c *HTTPClient) TwoFADisable(ctx context.Context) error {
	return c.doAuthed(ctx, http.MethodPost, "/auth/2fa/disable", nil, nil)
}

func (c *HTTPClient) TwoFALoginVerify(ctx context.Context, email, code string, t models.TwoFactorType) error {
	// Pre-auth endpoint: completes a login, so it stays outside the retry
	// policy like the other auth lifecycle calls.
	err := c.doJSON(ctx, http.MethodPost, "/auth/2fa/login-verify",
		map[string]any{"email": email, "code": code, "type": t}, nil)
	if err != nil {
		return challengeFailure(err)
	}
	return nil
}

func (c *HTTPClient) ExportData(ctx context.Context) ([]ProjectChat, error) {
	var out struct {
		Chats []ProjectChat `json:"chats"`
	}
	if err := c.doAuthed(ctx, http.MethodGet, "/user/export-data", nil, &out); err != nil {
		return nil, err
	}
	return out.Chats, nil
}

func (c *HTTPClient) SendChat(ctx context.Context, projectID, message string) (string, error) {
	var out struct {
		Reply string `json:"reply"`
	}
	err := c.doAuthed(ctx, http.MethodPost, "/chat/send",
		map[string]string{"project_id": projectID, "message": message}, &out)
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}
