package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PersonalGenomesOrg/gennotes/internal/domain"
)

func TestHandleSignUp_Success(t *testing.T) {
	userID := uuid.New()
	app := &mockAppService{
		signUpFn: func(_ context.Context, username, email, password string) (*domain.User, error) {
			assert.Equal(t, "curator", username)
			assert.Equal(t, "curator@example.org", email)
			assert.Equal(t, "hunter2hunter2", password)
			return &domain.User{ID: userID, Username: username, Email: email}, nil
		},
	}
	srv := newTestServer(t, app)

	body := `{"username":"curator","email":"curator@example.org","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(srv, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.Contains(t, rec.Body.String(), `"verified":false`)
}

func TestHandleSignUp_DuplicateUsername(t *testing.T) {
	app := &mockAppService{
		signUpFn: func(context.Context, string, string, string) (*domain.User, error) {
			return nil, domain.ErrDuplicateUsername
		},
	}
	srv := newTestServer(t, app)

	body := `{"username":"curator","email":"curator@example.org","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(srv, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleVerifyEmail(t *testing.T) {
	app := &mockAppService{
		verifyEmailFn: func(_ context.Context, token string) (*domain.User, error) {
			assert.Equal(t, "sometoken", token)
			return &domain.User{ID: uuid.New(), Username: "curator", Verified: true}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/verify/sometoken", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"verified":true`)
}

func TestHandleLogIn_SetsSessionCookie(t *testing.T) {
	userID := uuid.New()
	app := &mockAppService{
		logInFn: func(_ context.Context, login, password string) (*domain.User, error) {
			assert.Equal(t, "curator", login)
			return &domain.User{ID: userID, Username: "curator", Verified: true}, nil
		},
	}
	srv := newTestServer(t, app)

	body := `{"login":"curator","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(srv, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	var found bool
	for _, cookie := range cookies {
		if cookie.Name == sessionName {
			found = true
			assert.True(t, cookie.HttpOnly)
		}
	}
	assert.True(t, found, "login should set the session cookie")
}

func TestHandleLogIn_Unverified(t *testing.T) {
	app := &mockAppService{
		logInFn: func(context.Context, string, string) (*domain.User, error) {
			return nil, domain.ErrEmailNotVerified
		},
	}
	srv := newTestServer(t, app)

	body := `{"login":"newbie","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(srv, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleLogIn_BadCredentials(t *testing.T) {
	app := &mockAppService{
		logInFn: func(context.Context, string, string) (*domain.User, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	srv := newTestServer(t, app)

	body := `{"login":"curator","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(srv, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_NoSession(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionRoundTrip(t *testing.T) {
	userID := uuid.New()
	app := &mockAppService{
		logInFn: func(context.Context, string, string) (*domain.User, error) {
			return &domain.User{ID: userID, Username: "curator", Verified: true}, nil
		},
		getUserFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			assert.Equal(t, userID, id)
			return &domain.User{ID: id, Username: "curator", Verified: true}, nil
		},
	}
	srv := newTestServer(t, app)

	// Log in and capture the cookie.
	body := `{"login":"curator","password":"hunter2hunter2"}`
	loginReq := httptest.NewRequest(http.MethodPost, "/api/accounts/login", strings.NewReader(body))
	loginReq.Header.Set("Content-Type", "application/json")
	loginRec := doRequest(srv, loginReq)
	require.Equal(t, http.StatusOK, loginRec.Code)

	// Replay the cookie against an authenticated endpoint.
	meReq := httptest.NewRequest(http.MethodGet, "/api/accounts/me", nil)
	for _, cookie := range loginRec.Result().Cookies() {
		meReq.AddCookie(cookie)
	}
	meRec := doRequest(srv, meReq)

	assert.Equal(t, http.StatusOK, meRec.Code)
	assert.Contains(t, meRec.Body.String(), `"username":"curator"`)
}
