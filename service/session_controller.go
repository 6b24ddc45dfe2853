package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/layer-3/authflow/core"
	"github.com/layer-3/authflow/ports"
)

// Messages reported on success of the token-storing operations
const (
	MsgLoginSuccess   = "Login successful"
	MsgRefreshSuccess = "Access token refreshed"
)

// DefaultBaseURL is the API the client talks to when nothing is configured
const DefaultBaseURL = "http://localhost:8080"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful POST /login
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse is the body of a successful POST /refresh
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

var emptyJSONBody = []byte("{}")

var errNullBody = errors.New("response body is null")

// SessionController drives the register/login/refresh/fetch/logout flow
// against the auth API and owns the client's credentials.
type SessionController struct {
	api     ports.API
	display ports.Display
	session *core.Session
	logger  *slog.Logger

	mu      sync.RWMutex
	baseURL string
}

// NewSessionController creates a controller with an empty session
func NewSessionController(
	api ports.API,
	display ports.Display,
	baseURL string,
	logger *slog.Logger,
) *SessionController {
	if logger == nil {
		logger = slog.Default()
	}
	c := &SessionController{
		api:     api,
		display: display,
		session: core.NewSession(),
		logger:  logger.With("component", "session"),
	}
	c.SetBaseURL(baseURL)
	return c
}

// SetBaseURL points subsequent operations at another API root
func (c *SessionController) SetBaseURL(baseURL string) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// BaseURL returns the API root currently in use
func (c *SessionController) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Session returns a snapshot of the held credentials
func (c *SessionController) Session() core.Credentials {
	return c.session.Credentials()
}

// State returns whether a login has stored credentials
func (c *SessionController) State() core.SessionState {
	return c.session.State()
}

// Register creates an account and reports the server's reply verbatim
func (c *SessionController) Register(ctx context.Context, username, password string) error {
	req, err := c.credentialsRequest("/register", username, password)
	if err != nil {
		return c.fail("Register failed: ", err)
	}

	text, err := c.api.SendRaw(ctx, req)
	if err != nil {
		return c.fail("Register failed: ", err)
	}

	c.display.Show(text)
	return nil
}

// Login authenticates and stores both returned tokens
func (c *SessionController) Login(ctx context.Context, username, password string) error {
	req, err := c.credentialsRequest("/login", username, password)
	if err != nil {
		return c.fail("Login failed: ", err)
	}

	var resp *LoginResponse
	if err := c.api.Send(ctx, req, &resp); err != nil {
		return c.fail("Login failed: ", err)
	}
	if resp == nil {
		return c.fail("Login failed: ", nullResponse())
	}

	c.session.SetTokens(resp.AccessToken, resp.RefreshToken)
	c.logger.Info("logged in",
		"username", username,
		"access_token", preview(resp.AccessToken))

	c.display.Show(MsgLoginSuccess)
	return nil
}

// Refresh exchanges the refresh token for a new access token
func (c *SessionController) Refresh(ctx context.Context) error {
	req := ports.Request{
		URL:    c.endpoint("/refresh"),
		Method: http.MethodPost,
		Headers: map[string]string{
			"Authorization": bearer(c.session.RefreshToken()),
			"Content-Type":  "application/json",
		},
		Body: emptyJSONBody,
	}

	var resp *RefreshResponse
	if err := c.api.Send(ctx, req, &resp); err != nil {
		return c.fail("Refresh failed: ", err)
	}
	if resp == nil {
		return c.fail("Refresh failed: ", nullResponse())
	}

	c.session.SetAccessToken(resp.AccessToken)
	c.logger.Info("access token refreshed", "access_token", preview(resp.AccessToken))

	c.display.Show(MsgRefreshSuccess)
	return nil
}

// SecureData fetches the protected resource with the access token
func (c *SessionController) SecureData(ctx context.Context) error {
	req := ports.Request{
		URL:    c.endpoint("/secure/data"),
		Method: http.MethodGet,
		Headers: map[string]string{
			"Authorization": bearer(c.session.AccessToken()),
		},
	}

	text, err := c.api.SendRaw(ctx, req)
	if err != nil {
		return c.fail("Error: ", err)
	}

	c.display.Show(text)
	return nil
}

// Logout asks the server to revoke the refresh token.
// Local credentials are left as they are.
func (c *SessionController) Logout(ctx context.Context) error {
	req := ports.Request{
		URL:    c.endpoint("/logout"),
		Method: http.MethodPost,
		Headers: map[string]string{
			"Authorization": bearer(c.session.RefreshToken()),
			"Content-Type":  "application/json",
		},
		Body: emptyJSONBody,
	}

	text, err := c.api.SendRaw(ctx, req)
	if err != nil {
		return c.fail("Logout failed: ", err)
	}

	c.display.Show(text)
	return nil
}

func (c *SessionController) credentialsRequest(path, username, password string) (ports.Request, error) {
	body, err := json.Marshal(credentialsRequest{Username: username, Password: password})
	if err != nil {
		return ports.Request{}, fmt.Errorf("encode request: %w", err)
	}
	return ports.Request{
		URL:    c.endpoint(path),
		Method: http.MethodPost,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: body,
	}, nil
}

func (c *SessionController) endpoint(path string) string {
	return c.BaseURL() + path
}

// fail reports err under the given prefix and hands it back to the caller
func (c *SessionController) fail(prefix string, err error) error {
	c.logger.Debug("operation failed", "prefix", strings.TrimSpace(prefix), "error", err)
	c.display.Show(prefix + err.Error())
	return err
}

// nullResponse is the error for a 2xx body that decodes to JSON null.
// Such a body is the literal null, give or take whitespace.
func nullResponse() error {
	return &core.MalformedResponseError{Body: "null", Err: errNullBody}
}

func bearer(token string) string {
	return "Bearer " + token
}

// preview shortens a token for logs
func preview(token string) string {
	if len(token) > 12 {
		return token[:12] + "..."
	}
	return token
}
