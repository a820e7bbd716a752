package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountrepo "craft-beer-store/backend/internal/account/repository"
	"craft-beer-store/backend/internal/auth/service"
	"craft-beer-store/backend/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()
	tokens, err := security.NewTokenProvider([]byte("test-secret"), "craftbeer-auth", "craftbeer-api", time.Hour)
	require.NoError(t, err)
	svc := service.NewAuthService(accountrepo.NewMemoryRepository(), security.NewHasher(4), tokens, nil, zerolog.Nop(),
		service.Options{Threshold: 3, RecheckBlocked: true})
	h := NewHTTPHandler(svc, zerolog.Nop())

	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.GET("/api/auth/me", RequireAuth(svc), h.Me)
	r.POST("/api/admin/accounts/unblock", RequireAuth(svc), h.Unblock)
	return r, svc
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	s, _ := body["detail"].(string)
	return s
}

func TestRegister_Created(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/auth/register", `{"name":"Juan","email":"juan@example.com","password":"secreto123"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "Juan", body["name"])
	assert.Equal(t, "juan@example.com", body["email"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegister_Conflict(t *testing.T) {
	r, _ := newTestRouter(t)
	body := `{"name":"Juan","email":"juan@example.com","password":"secreto123"}`
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/auth/register", body, "").Code)
	w := do(r, http.MethodPost, "/api/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email already registered", detail(t, w))
}

func TestRegister_BadRequest(t *testing.T) {
	r, _ := newTestRouter(t)
	for name, body := range map[string]string{
		"malformed json": `{"name":`,
		"bad email":      `{"name":"Juan","email":"nope","password":"secreto123"}`,
		"short password": `{"name":"Juan","email":"juan@example.com","password":"short"}`,
		"missing name":   `{"email":"juan@example.com","password":"secreto123"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/auth/register", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, detail(t, w))
		})
	}
}

func TestLogin_ResponseShape(t *testing.T) {
	r, _ := newTestRouter(t)
	do(r, http.MethodPost, "/api/auth/register", `{"name":"Juan","email":"juan@example.com","password":"secreto123"}`, "")

	w := do(r, http.MethodPost, "/api/auth/login", `{"email":"juan@example.com","password":"secreto123"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        struct {
			ID, Name, Email string
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.AccessToken)
	assert.Equal(t, "bearer", body.TokenType)
	assert.Equal(t, "juan@example.com", body.User.Email)
	assert.Equal(t, "Juan", body.User.Name)
	assert.NotEmpty(t, body.User.ID)
}

func TestLogin_UnknownAndWrongPasswordLookAlike(t *testing.T) {
	r, _ := newTestRouter(t)
	do(r, http.MethodPost, "/api/auth/register", `{"name":"Juan","email":"juan@example.com","password":"secreto123"}`, "")

	unknown := do(r, http.MethodPost, "/api/auth/login", `{"email":"ghost@example.com","password":"secreto123"}`, "")
	wrong := do(r, http.MethodPost, "/api/auth/login", `{"email":"juan@example.com","password":"bad-password"}`, "")
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, "invalid email or password", detail(t, unknown))
	assert.True(t, strings.HasPrefix(detail(t, wrong), detail(t, unknown)), "both start with the shared message")
}

func TestLogin_FailureReportsRemainingAttempts(t *testing.T) {
	r, _ := newTestRouter(t)
	do(r, http.MethodPost, "/api/auth/register", `{"name":"Juan","email":"juan@example.com","password":"secreto123"}`, "")

	w := do(r, http.MethodPost, "/api/auth/login", `{"email":"juan@example.com","password":"bad-password"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password; 2 attempt(s) remaining", detail(t, w))

	w = do(r, http.MethodPost, "/api/auth/login", `{"email":"juan@example.com","password":"bad-password"}`, "")
	assert.Equal(t, "invalid email or password; 1 attempt(s) remaining", detail(t, w))

	w = do(r, http.MethodPost, "/api/auth/login", `{"email":"juan@example.com","password":"bad-password"}`, "")
	assert.Contains(t, detail(t, w), "now blocked")
}

func TestLogin_BlockedIsForbidden(t *testing.T) {
	r, _ := newTestRouter(t)
	do(r, http.MethodPost, "/api/auth/register", `{"name":"Juan","email":"juan@example.com","password":"secreto123"}`, "")
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = do(r, http.MethodPost, "/api/auth/login", `{"email":"juan@example.com","password":"bad-password"}`, "")
	}
	assert.Equal(t, http.StatusUnauthorized, last.Code)
	assert.Contains(t, detail(t, last), "now blocked")

	w := do(r, http.MethodPost, "/api/auth/login", `{"email":"juan@example.com","password":"secreto123"}`, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMe(t *testing.T) {
	r, svc := newTestRouter(t)
	do(r, http.MethodPost, "/api/auth/register", `{"name":"Juan","email":"juan@example.com","password":"secreto123"}`, "")
	res, err := svc.Login(context.Background(), "juan@example.com", "secreto123")
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/api/auth/me", "", res.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "juan@example.com")

	w = do(r, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = do(r, http.MethodGet, "/api/auth/me", "", res.AccessToken+"x")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnblock_Handler(t *testing.T) {
	r, svc := newTestRouter(t)
	do(r, http.MethodPost, "/api/auth/register", `{"name":"Admin","email":"admin@example.com","password":"secreto123"}`, "")
	do(r, http.MethodPost, "/api/auth/register", `{"name":"Juan","email":"juan@example.com","password":"secreto123"}`, "")
	for i := 0; i < 3; i++ {
		do(r, http.MethodPost, "/api/auth/login", `{"email":"juan@example.com","password":"bad-password"}`, "")
	}
	admin, err := svc.Login(context.Background(), "admin@example.com", "secreto123")
	require.NoError(t, err)

	w := do(r, http.MethodPost, "/api/admin/accounts/unblock", `{"email":"juan@example.com"}`, admin.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/auth/login", `{"email":"juan@example.com","password":"secreto123"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/admin/accounts/unblock", `{"email":"ghost@example.com"}`, admin.AccessToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTPError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{service.ErrAccountNotFound, http.StatusUnauthorized},
		{&service.LoginFailure{Remaining: 2}, http.StatusUnauthorized},
		{service.ErrAccountBlocked, http.StatusForbidden},
		{service.ErrDuplicateAccount, http.StatusConflict},
		{&service.ValidationError{Field: "email", Message: "is required"}, http.StatusBadRequest},
		{service.ErrTokenInvalid, http.StatusUnauthorized},
		{errors.Join(errors.New("get account"), service.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	_, two := HTTPError(&service.LoginFailure{Remaining: 2})
	_, one := HTTPError(&service.LoginFailure{Remaining: 1})
	assert.Contains(t, two, "2 attempt(s) remaining")
	assert.Contains(t, one, "1 attempt(s) remaining")

	for _, tt := range tests {
		code, msg := HTTPError(tt.err)
		assert.Equal(t, tt.code, code, "%v", tt.err)
		assert.NotEmpty(t, msg)
		assert.NotContains(t, msg, "get account", "store details never reach clients")
	}
}

func TestExtractBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractBearer("Bearer abc"))
	assert.Equal(t, "abc", ExtractBearer("bearer   abc "))
	assert.Equal(t, "", ExtractBearer("Basic abc"))
	assert.Equal(t, "", ExtractBearer("Bearer"))
	assert.Equal(t, "", ExtractBearer(""))
}
