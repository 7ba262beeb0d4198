package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"murmur/internal/config"
	"murmur/internal/models"
	"murmur/internal/oauth"
	"murmur/internal/storage"
	"murmur/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// MockProvider is a mock of the oauth.Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockProvider) Exchange(ctx context.Context, code string) (*oauth.Identity, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.Identity), args.Error(1)
}

type testEnv struct {
	t        *testing.T
	srv      *Server
	app      *fiber.App
	db       *gorm.DB
	mr       *miniredis.Miniredis
	provider *MockProvider
}

type envOption func(*config.Config)

func withoutRedis() envOption {
	return func(c *config.Config) { c.RedisURL = "" }
}

// newTestEnv builds a full server over sqlite, miniredis and a temp media
// directory.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        testSecret,
		Env:              "test",
		RedisURL:         "miniredis",
		ImageMaxUploadMB: 2,
	}
	for _, o := range opts {
		o(cfg)
	}

	env := &testEnv{t: t, db: testutil.SQLite(t), provider: new(MockProvider)}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		env.mr = miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: env.mr.Addr()})
	}

	local, err := storage.NewLocal(t.TempDir(), "https://cdn.test")
	require.NoError(t, err)

	srv, err := NewServerWithDeps(cfg, env.db, rdb, storage.NewDisks(local), env.provider)
	require.NoError(t, err)
	env.srv = srv
	env.app = srv.NewApp()
	t.Cleanup(func() { _ = srv.hub.Shutdown(context.Background()) })
	return env
}

func (e *testEnv) user(username string, private bool) *models.User {
	e.t.Helper()
	u := &models.User{
		Name:      username,
		Username:  username,
		Email:     username + "@example.com",
		Password:  "x",
		IsPrivate: private,
	}
	require.NoError(e.t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) token(u *models.User) string {
	e.t.Helper()
	tok, err := e.srv.auth.Issue(u.ID, u.Username)
	require.NoError(e.t, err)
	return tok
}

// do sends a JSON request and decodes the JSON response into out when non-nil.
func (e *testEnv) do(method, path, token string, body any, out any) int {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(req, out)
}

func (e *testEnv) send(req *http.Request, out any) int {
	e.t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		require.NoError(e.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
