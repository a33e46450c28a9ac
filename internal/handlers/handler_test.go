package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"urldash/internal/config"
	"urldash/internal/models"
	"urldash/internal/repository"
	"urldash/internal/services"
	"urldash/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeOIDC struct {
	identity  *services.OIDCIdentity
	err       error
	lastState string
}

func (f *fakeOIDC) AuthCodeURL(state string) string {
	f.lastState = state
	return "https://idp.example.com/authorize?state=" + state
}

func (f *fakeOIDC) Exchange(_ context.Context, code string) (*services.OIDCIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type testEnv struct {
	h     *Handler
	r     *gin.Engine
	db    *gorm.DB
	repos *repository.Repositories
	oidc  *fakeOIDC
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:        "test",
		SessionSecret: "test-secret-12345678901234567890123456789012",
		AuthProviders: "local",
	}
}

func setupTestHandler(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, repository.AutoMigrate(db))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := repository.NewRepositories(repository.NewGormStore(db))
	audit := services.NewAuditService(repos.AuditLogs, services.NewGeoIPService(cfg, logger), logger)
	auth := services.NewAuthService(repos.Users, services.NewLoginThrottle(nil, 5, 0, logger), audit, logger)
	users := services.NewUserService(repos.Users, repos.Servers, audit, logger)
	oidc := &fakeOIDC{}

	ctx, cancel := context.WithCancel(context.Background())
	go audit.Start(ctx)
	t.Cleanup(cancel)

	h := NewHandler(cfg, logger, repos, auth, users, audit, services.NewQRService(), oidc)
	gin.SetMode(gin.TestMode)
	return &testEnv{h: h, r: h.SetupRouter(nil), db: db, repos: repos, oidc: oidc}
}

func (e *testEnv) createUser(t *testing.T, username, password string, role models.Role, temp bool) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	user, err := e.repos.Users.CreateUser(context.Background(), repository.CreateUserData{
		Username:     username,
		Role:         role,
		PasswordHash: hash,
		TempPassword: temp,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

// login returns the session cookies for the given credentials.
func (e *testEnv) login(t *testing.T, username, password string) []*http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/login", map[string]string{"username": username, "password": password}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
