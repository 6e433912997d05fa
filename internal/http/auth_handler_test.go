package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookshop/internal/auth"
	"bookshop/internal/entity"
	"bookshop/internal/httpx"
	"bookshop/internal/store"
)

type fakeUserRepo struct {
	user       entity.User
	logins     int
	logouts    int
	lastLogout string
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (entity.User, error) {
	if username != f.user.Username {
		return entity.User{}, store.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeUserRepo) RecordLogin(context.Context, string, time.Time) error {
	f.logins++
	return nil
}

func (f *fakeUserRepo) RecordLogout(_ context.Context, userID string, _ time.Time) error {
	f.logouts++
	f.lastLogout = userID
	return nil
}

func newAuthFixture(t *testing.T) (*AuthHandler, *fakeUserRepo) {
	t.Helper()
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	repo := &fakeUserRepo{user: entity.User{
		ID:       "u-1",
		Username: "alice",
		Role:     entity.RoleStaff,
		Password: hash,
	}}
	return NewAuthHandler(repo, "test-secret", zap.NewNop()), repo
}

func postLogin(h *AuthHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLoginIssuesToken(t *testing.T) {
	h, repo := newAuthFixture(t)

	rec := postLogin(h, `{"username":"alice","password":"s3cret"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data loginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Data.User.Password)
	assert.Equal(t, 1, repo.logins)

	claims, err := auth.ParseToken("test-secret", body.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Sub)
	assert.Equal(t, entity.RoleStaff, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h, repo := newAuthFixture(t)

	rec := postLogin(h, `{"username":"alice","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, repo.logins)
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	h, _ := newAuthFixture(t)

	rec := postLogin(h, `{"username":"mallory","password":"s3cret"}`)

	// same body as a wrong password, no username oracle
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body httpx.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_credentials", body.Error.Code)
}

func TestLogoutRecordsTimestamp(t *testing.T) {
	h, repo := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(httpx.ContextWithUser(req.Context(), "u-1", "alice", entity.RoleStaff))
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, repo.logouts)
	assert.Equal(t, "u-1", repo.lastLogout)
}

func TestLogoutWithoutAuth(t *testing.T) {
	h, repo := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, repo.logouts)
}
