package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"bookshop/internal/auth"
	"bookshop/internal/entity"
	"bookshop/internal/httpx"
	"bookshop/internal/store"
)

const tokenTTL = 24 * time.Hour

// UserRepository is the slice of the user store the auth surface needs.
// Login and logout timestamps feed the session analytics, so recording
// them is part of authenticating, not an afterthought.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (entity.User, error)
	RecordLogin(ctx context.Context, userID string, at time.Time) error
	RecordLogout(ctx context.Context, userID string, at time.Time) error
}

type AuthHandler struct {
	users     UserRepository
	jwtSecret string
	now       func() time.Time
	log       *zap.Logger
}

func NewAuthHandler(users UserRepository, jwtSecret string, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{users: users, jwtSecret: jwtSecret, now: time.Now, log: log}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  entity.User `json:"user"`
}

// @Summary Log in
// @Description Exchange credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_request", "username and password are required", nil)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error("user lookup failed", zap.Error(err))
		}
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password", nil)
		return
	}
	if !auth.VerifyPassword(user.Password, req.Password) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password", nil)
		return
	}

	token, jti, err := auth.GenerateToken(h.jwtSecret, user.ID, user.Username, user.Role, tokenTTL)
	if err != nil {
		h.log.Error("token generation failed", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "could not issue token", nil)
		return
	}

	now := h.now()
	if err := h.users.RecordLogin(r.Context(), user.ID, now); err != nil {
		// The session metrics lose one data point; the login itself stands.
		h.log.Warn("could not record login time", zap.String("user_id", user.ID), zap.Error(err))
	}

	h.log.Info("user logged in", zap.String("username", user.Username), zap.String("jti", jti))
	user.Password = ""
	httpx.JSONSuccess(w, loginResponse{Token: token, User: user}, nil)
}

// @Summary Log out
// @Description Record the logout time for the authenticated user
// @Tags auth
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	if err := h.users.RecordLogout(r.Context(), userID, h.now()); err != nil {
		h.log.Error("could not record logout time", zap.String("user_id", userID), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "could not log out", nil)
		return
	}
	httpx.JSONSuccess(w, map[string]string{"status": "logged_out"}, nil)
}
