package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/go-pos/auth"
	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/services"
)

type AuthHandler struct {
	users  *services.UserService
	issuer *auth.Issuer
}

func NewAuthHandler(users *services.UserService, issuer *auth.Issuer) *AuthHandler {
	return &AuthHandler{users: users, issuer: issuer}
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &input) {
		return
	}
	user, err := h.users.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		logger.Warn("login failed for %q", input.Username)
		httpx.Error(w, err)
		return
	}
	token, exp, err := h.issuer.Issue(user.ID, string(user.Role))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	auth.SetSessionCookie(w, token, exp)
	httpx.JSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: exp, User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword serves POST /me/password for the authenticated user.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var input struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if !decode(w, r, &input) {
		return
	}
	if err := h.users.ChangePassword(r.Context(), uid, input.Current, input.New); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
