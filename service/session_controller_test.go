package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/authflow/adapters/display"
	"github.com/layer-3/authflow/adapters/httpapi"
	"github.com/layer-3/authflow/core"
	"github.com/layer-3/authflow/ports"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

type reply struct {
	status int
	body   string
}

// scriptedAPI answers each path with a fixed reply and records every request
type scriptedAPI struct {
	mu       sync.Mutex
	replies  map[string]reply
	requests []recordedRequest
}

func (s *scriptedAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   string(b),
	})
	rep, ok := s.replies[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (s *scriptedAPI) set(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[path] = reply{status: status, body: body}
}

func (s *scriptedAPI) last() recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

// recordingAPI captures requests before they reach the wire
type recordingAPI struct {
	requests []ports.Request
	err      error
}

func (r *recordingAPI) Send(_ context.Context, req ports.Request, _ any) error {
	r.requests = append(r.requests, req)
	return r.err
}

func (r *recordingAPI) SendRaw(_ context.Context, req ports.Request) (string, error) {
	r.requests = append(r.requests, req)
	return "", r.err
}

func newTestController(t *testing.T) (*SessionController, *scriptedAPI, *display.WriterDisplay) {
	t.Helper()
	api := &scriptedAPI{replies: map[string]reply{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	out := display.NewWriterDisplay(&bytes.Buffer{})
	c := NewSessionController(httpapi.NewAdapter(srv.Client(), nil), out, srv.URL+"/", nil)
	return c, api, out
}

func TestSessionController_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("shows server text", func(t *testing.T) {
		c, api, out := newTestController(t)
		api.set("/register", http.StatusCreated, "User registered successfully")

		require.NoError(t, c.Register(ctx, "alice", "pw1"))
		assert.Equal(t, "User registered successfully", out.Last())

		req := api.last()
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/register", req.Path)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Empty(t, req.Header.Get("Authorization"))
		assert.JSONEq(t, `{"username":"alice","password":"pw1"}`, req.Body)
		assert.Equal(t, core.Unauthenticated, c.State())
	})

	t.Run("failure reports body verbatim", func(t *testing.T) {
		c, api, out := newTestController(t)
		api.set("/register", http.StatusBadRequest, "username taken")

		err := c.Register(ctx, "alice", "pw1")

		var httpErr *core.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, "Register failed: username taken", out.Last())
	})

	t.Run("empty fields are sent as given", func(t *testing.T) {
		c, api, _ := newTestController(t)
		api.set("/register", http.StatusBadRequest, "Missing 'username' or 'password'")

		_ = c.Register(ctx, "", "")
		assert.JSONEq(t, `{"username":"","password":""}`, api.last().Body)
	})
}

func TestSessionController_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("stores both tokens", func(t *testing.T) {
		c, api, out := newTestController(t)
		api.set("/login", http.StatusOK, `{"access_token":"A","refresh_token":"R"}`)

		require.NoError(t, c.Login(ctx, "alice", "pw1"))
		assert.Equal(t, core.Credentials{AccessToken: "A", RefreshToken: "R"}, c.Session())
		assert.Equal(t, core.Authenticated, c.State())
		assert.Equal(t, MsgLoginSuccess, out.Last())

		req := api.last()
		assert.Equal(t, "/login", req.Path)
		assert.JSONEq(t, `{"username":"alice","password":"pw1"}`, req.Body)
	})

	t.Run("rejected login leaves session alone", func(t *testing.T) {
		c, api, out := newTestController(t)
		api.set("/login", http.StatusOK, `{"access_token":"A","refresh_token":"R"}`)
		require.NoError(t, c.Login(ctx, "alice", "pw1"))

		api.set("/login", http.StatusUnauthorized, "Invalid credentials")
		require.Error(t, c.Login(ctx, "alice", "wrong"))

		assert.Equal(t, "Login failed: Invalid credentials", out.Last())
		assert.Equal(t, core.Credentials{AccessToken: "A", RefreshToken: "R"}, c.Session())
	})

	t.Run("malformed reply leaves session alone", func(t *testing.T) {
		c, api, out := newTestController(t)
		api.set("/login", http.StatusOK, "<html>")

		err := c.Login(ctx, "alice", "pw1")

		var malformed *core.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "Login failed: <html>", out.Last())
		assert.Equal(t, core.Credentials{}, c.Session())
	})

	t.Run("null body is malformed", func(t *testing.T) {
		c, api, out := newTestController(t)
		api.set("/login", http.StatusOK, `{"access_token":"A","refresh_token":"R"}`)
		require.NoError(t, c.Login(ctx, "alice", "pw1"))

		api.set("/login", http.StatusOK, "null")
		err := c.Login(ctx, "alice", "pw1")

		var malformed *core.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "Login failed: null", out.Last())
		assert.Equal(t, core.Credentials{AccessToken: "A", RefreshToken: "R"}, c.Session())
	})

	t.Run("missing key is stored as absent", func(t *testing.T) {
		c, api, _ := newTestController(t)
		api.set("/login", http.StatusOK, `{"access_token":"A"}`)

		require.NoError(t, c.Login(ctx, "alice", "pw1"))
		assert.Equal(t, core.Credentials{AccessToken: "A"}, c.Session())
		assert.Equal(t, core.Unauthenticated, c.State())
	})
}

func TestSessionController_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("sends refresh token and replaces access token", func(t *testing.T) {
		c, api, out := newTestController(t)
		api.set("/login", http.StatusOK, `{"access_token":"A0","refresh_token":"R0"}`)
		api.set("/refresh", http.StatusOK, `{"access_token":"A1"}`)
		require.NoError(t, c.Login(ctx, "alice", "pw1"))

		require.NoError(t, c.Refresh(ctx))

		req := api.last()
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/refresh", req.Path)
		assert.Equal(t, "Bearer R0", req.Header.Get("Authorization"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, "{}", req.Body)

		assert.Equal(t, core.Credentials{AccessToken: "A1", RefreshToken: "R0"}, c.Session())
		assert.Equal(t, MsgRefreshSuccess, out.Last())
	})

	t.Run("without a session still sends the request", func(t *testing.T) {
		api := &recordingAPI{err: &core.HTTPError{Status: http.StatusUnauthorized, Body: "Invalid authorization header"}}
		out := display.NewWriterDisplay(io.Discard)
		c := NewSessionController(api, out, "", nil)

		require.Error(t, c.Refresh(ctx))
		require.Len(t, api.requests, 1)
		assert.Equal(t, DefaultBaseURL+"/refresh", api.requests[0].URL)
		assert.Equal(t, "Bearer ", api.requests[0].Headers["Authorization"])
		assert.Equal(t, "Refresh failed: Invalid authorization header", out.Last())
	})

	t.Run("null body keeps the old access token", func(t *testing.T) {
		c, api, out := newTestController(t)
		api.set("/login", http.StatusOK, `{"access_token":"A0","refresh_token":"R0"}`)
		api.set("/refresh", http.StatusOK, " null\n")
		require.NoError(t, c.Login(ctx, "alice", "pw1"))

		err := c.Refresh(ctx)

		var malformed *core.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "Refresh failed: null", out.Last())
		assert.Equal(t, "A0", c.Session().AccessToken)
	})

	t.Run("failure keeps the old access token", func(t *testing.T) {
		c, api, _ := newTestController(t)
		api.set("/login", http.StatusOK, `{"access_token":"A0","refresh_token":"R0"}`)
		require.NoError(t, c.Login(ctx, "alice", "pw1"))

		api.set("/refresh", http.StatusUnauthorized, "Refresh token has been invalidated")
		require.Error(t, c.Refresh(ctx))
		assert.Equal(t, "A0", c.Session().AccessToken)
	})
}

func TestSessionController_SecureData(t *testing.T) {
	ctx := context.Background()

	t.Run("sends access token only", func(t *testing.T) {
		c, api, out := newTestController(t)
		api.set("/login", http.StatusOK, `{"access_token":"A","refresh_token":"R"}`)
		api.set("/secure/data", http.StatusOK, "Hello, alice! This is protected data.")
		require.NoError(t, c.Login(ctx, "alice", "pw1"))

		require.NoError(t, c.SecureData(ctx))

		req := api.last()
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "Bearer A", req.Header.Get("Authorization"))
		assert.Empty(t, req.Header.Get("Content-Type"))
		assert.Empty(t, req.Body)
		assert.Equal(t, "Hello, alice! This is protected data.", out.Last())
	})

	t.Run("empty token is still sent", func(t *testing.T) {
		api := &recordingAPI{err: &core.HTTPError{Status: http.StatusUnauthorized, Body: "Invalid authorization header"}}
		out := display.NewWriterDisplay(io.Discard)
		c := NewSessionController(api, out, "", nil)

		require.Error(t, c.SecureData(ctx))
		require.Len(t, api.requests, 1)
		assert.Equal(t, map[string]string{"Authorization": "Bearer "}, api.requests[0].Headers)
		assert.Equal(t, "Error: Invalid authorization header", out.Last())
	})
}

func TestSessionController_Logout(t *testing.T) {
	ctx := context.Background()
	c, api, out := newTestController(t)
	api.set("/login", http.StatusOK, `{"access_token":"A","refresh_token":"R"}`)
	api.set("/logout", http.StatusOK, "Logged out")
	require.NoError(t, c.Login(ctx, "alice", "pw1"))

	require.NoError(t, c.Logout(ctx))

	req := api.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/logout", req.Path)
	assert.Equal(t, "Bearer R", req.Header.Get("Authorization"))
	assert.Equal(t, "{}", req.Body)
	assert.Equal(t, "Logged out", out.Last())

	// credentials stay in place after a server-side logout
	assert.Equal(t, core.Credentials{AccessToken: "A", RefreshToken: "R"}, c.Session())

	api.set("/logout", http.StatusUnauthorized, "Refresh token has been invalidated")
	require.Error(t, c.Logout(ctx))
	assert.Equal(t, "Logout failed: Refresh token has been invalidated", out.Last())
}

func TestSessionController_FullFlow(t *testing.T) {
	ctx := context.Background()
	c, api, out := newTestController(t)
	api.set("/login", http.StatusOK, `{"access_token":"tok1","refresh_token":"ref1"}`)
	api.set("/refresh", http.StatusOK, `{"access_token":"tok2"}`)
	api.set("/secure/data", http.StatusOK, "Hello, alice! This is protected data.")

	require.NoError(t, c.Login(ctx, "alice", "pw1"))
	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, "Bearer ref1", api.last().Header.Get("Authorization"))

	require.NoError(t, c.SecureData(ctx))
	assert.Equal(t, "Bearer tok2", api.last().Header.Get("Authorization"))
	assert.Equal(t, "Hello, alice! This is protected data.", out.Last())
	assert.Equal(t, core.Credentials{AccessToken: "tok2", RefreshToken: "ref1"}, c.Session())
}

func TestSessionController_NetworkError(t *testing.T) {
	out := display.NewWriterDisplay(&bytes.Buffer{})
	c := NewSessionController(httpapi.NewAdapter(nil, nil), out, "http://127.0.0.1:1", nil)

	err := c.SecureData(context.Background())

	var netErr *core.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "Error: "+err.Error(), out.Last())
}

func TestSessionController_BaseURL(t *testing.T) {
	c := NewSessionController(httpapi.NewAdapter(nil, nil), display.NewWriterDisplay(io.Discard), "", nil)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c.SetBaseURL("https://auth.example.com/")
	assert.Equal(t, "https://auth.example.com", c.BaseURL())
}
