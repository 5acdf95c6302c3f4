package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/pkg/response"
)

// Users is the user lookup the login flow needs.
type Users interface {
	GetByLoginName(ctx context.Context, loginName string) (*models.User, error)
}

// LoginRequest is the body for POST /login. Either login name or email is accepted.
type LoginRequest struct {
	Login    string `json:"login" form:"login" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// TokenResponse is the login response.
type TokenResponse struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
}

// Handler handles login and logout.
type Handler struct {
	users  Users
	jwt    *JWTService
	cookie CookieSettings
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users Users, jwt *JWTService, cookie CookieSettings, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{users: users, jwt: jwt, cookie: cookie, logger: logger}
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "login and password are required")
		return
	}

	user, err := h.users.GetByLoginName(c.Request.Context(), strings.TrimSpace(req.Login))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.logger.Error("login lookup failed", zap.Error(err))
			response.Internal(c, "failed to sign in")
			return
		}
		response.Unauthorized(c, "invalid login or password")
		return
	}
	if user.IsRetired() || !CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid login or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.LoginName)
	if err != nil {
		h.logger.Error("token generation failed", zap.Int64("user_id", user.ID), zap.Error(err))
		response.Internal(c, "failed to sign in")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.jwt.TTL().Seconds()), "/", "", h.cookie.Secure, true)
	h.logger.Info("user signed in", zap.Int64("user_id", user.ID))
	response.OK(c, TokenResponse{Token: token, User: user.Summary("")})
}

// Logout handles POST /logout.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	response.Redirect(c, "/login")
}
