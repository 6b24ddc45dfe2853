package server

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/authflow/adapters/display"
	"github.com/layer-3/authflow/adapters/httpapi"
	"github.com/layer-3/authflow/core"
	"github.com/layer-3/authflow/internal/config"
	"github.com/layer-3/authflow/service"
)

func newTestServer(t *testing.T, cfg *config.ServerConfig) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, ts *httptest.Server) (*service.SessionController, *display.WriterDisplay) {
	t.Helper()
	out := display.NewWriterDisplay(&bytes.Buffer{})
	return service.NewSessionController(httpapi.NewAdapter(ts.Client(), nil), out, ts.URL, nil), out
}

func TestClientAgainstServer(t *testing.T) {
	ts := newTestServer(t, &config.ServerConfig{
		Addr:           ":0",
		DBPath:         filepath.Join(t.TempDir(), "users.db"),
		SigningKeyPath: filepath.Join(t.TempDir(), "signing.pem"),
		AccessTTL:      time.Minute,
		RefreshTTL:     time.Hour,
	})
	ctx := context.Background()
	client, out := newClient(t, ts)

	require.NoError(t, client.Register(ctx, "alice", "pw1"))
	assert.Equal(t, "User registered successfully", out.Last())

	require.Error(t, client.Register(ctx, "alice", "pw1"))
	assert.Equal(t, "Register failed: Username already exists", out.Last())

	require.Error(t, client.Login(ctx, "alice", "wrong"))
	assert.Equal(t, "Login failed: Invalid credentials", out.Last())
	assert.Equal(t, core.Unauthenticated, client.State())

	require.NoError(t, client.Login(ctx, "alice", "pw1"))
	first := client.Session()
	assert.Equal(t, core.Authenticated, client.State())

	require.NoError(t, client.SecureData(ctx))
	assert.Equal(t, "Hello, alice! This is protected data.", out.Last())

	require.NoError(t, client.Refresh(ctx))
	second := client.Session()
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, first.RefreshToken, second.RefreshToken)

	require.NoError(t, client.Logout(ctx))
	assert.Equal(t, "Logged out", out.Last())

	require.Error(t, client.Refresh(ctx))
	assert.Equal(t, "Refresh failed: Refresh token has been invalidated", out.Last())

	require.Error(t, client.SecureData(ctx))
	assert.Equal(t, "Error: Access token has been invalidated", out.Last())
}

func TestClientAgainstServer_ExpiredAccessToken(t *testing.T) {
	ts := newTestServer(t, &config.ServerConfig{
		Addr:       ":0",
		AccessTTL:  -time.Second,
		RefreshTTL: time.Hour,
	})
	ctx := context.Background()
	client, out := newClient(t, ts)

	require.NoError(t, client.Register(ctx, "alice", "pw1"))
	require.NoError(t, client.Login(ctx, "alice", "pw1"))

	require.Error(t, client.SecureData(ctx))
	assert.Equal(t, "Error: Access token expired", out.Last())
}

func TestLogoutSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.ServerConfig{
		Addr:           ":0",
		DBPath:         filepath.Join(dir, "auth.db"),
		SigningKeyPath: filepath.Join(dir, "signing.pem"),
		AccessTTL:      time.Minute,
		RefreshTTL:     time.Hour,
	}
	ctx := context.Background()

	gin.SetMode(gin.TestMode)
	first, err := New(cfg, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(first.Router)

	client, out := newClient(t, ts)
	require.NoError(t, client.Register(ctx, "alice", "pw1"))
	require.NoError(t, client.Login(ctx, "alice", "pw1"))
	require.NoError(t, client.Logout(ctx))

	ts.Close()
	require.NoError(t, first.Close())

	restarted := newTestServer(t, cfg)
	client.SetBaseURL(restarted.URL)

	require.Error(t, client.Refresh(ctx))
	assert.Equal(t, "Refresh failed: Refresh token has been invalidated", out.Last())
	require.Error(t, client.SecureData(ctx))
	assert.Equal(t, "Error: Access token has been invalidated", out.Last())
}
