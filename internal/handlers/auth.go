package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/diewo77/multisarl/internal/auth"
	"github.com/diewo77/multisarl/internal/gate"
	"github.com/diewo77/multisarl/internal/httpx"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/policy"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db     *gorm.DB
	tokens *auth.TokenService
	gate   *policy.AuthGate
}

func NewAuthHandler(db *gorm.DB, tokens *auth.TokenService, g *policy.AuthGate) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, gate: g}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	auth.TokenPair
	User *models.User `json:"user"`
}

// Login checks the credentials, issues a token pair and sets the session
// cookie so browser clients work without handling tokens.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Username == "" || in.Password == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"credentials": "required"})
		return
	}

	var user models.User
	err := h.db.WithContext(r.Context()).Where("username = ?", in.Username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, r, err)
		return
	}
	if err != nil || !user.IsActive || !auth.CheckPassword(user.Password, in.Password) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}

	pair, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	now := time.Now()
	user.LastLogin = &now
	if err := h.db.WithContext(r.Context()).Model(&user).Update("last_login", now).Error; err != nil {
		writeError(w, r, err)
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, loginResponse{TokenPair: pair, User: &user})
}

// Refresh exchanges a refresh token for a new pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	uid, err := h.tokens.Parse(in.Refresh, auth.RefreshToken)
	if err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_token", nil)
		return
	}
	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, uid).Error; err != nil || !user.IsActive {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_token", nil)
		return
	}
	pair, err := h.tokens.Issue(uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.NoContent(w)
}

type meResponse struct {
	*models.User
	Permissions map[string]map[gate.Capability]bool `json:"permissions"`
}

// Me returns the current user with the effective per-module grants.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, uid).Error; err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.gate.Principal(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	perms := make(map[string]map[gate.Capability]bool, len(models.Modules))
	for _, m := range models.Modules {
		flags := map[gate.Capability]bool{}
		for _, c := range []gate.Capability{gate.CanRead, gate.CanWrite, gate.CanUpdate, gate.CanDelete} {
			flags[c] = p.Bypass() || p.Has(m, c)
		}
		perms[m] = flags
	}
	httpx.JSON(w, http.StatusOK, meResponse{User: &user, Permissions: perms})
}
