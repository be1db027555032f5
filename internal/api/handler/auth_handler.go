package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marvingabia/da-agrimanage-gabia/config"
	"github.com/marvingabia/da-agrimanage-gabia/internal/api/middleware"
	"github.com/marvingabia/da-agrimanage-gabia/internal/dto"
	"github.com/marvingabia/da-agrimanage-gabia/internal/service"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/response"
)

// AuthHandler registration, login and logout.
type AuthHandler struct {
	authSvc service.AuthService
	cookie  config.CookieConfig
}

// NewAuthHandler creates an AuthHandler. cookie may be nil for defaults.
func NewAuthHandler(authSvc service.AuthService, cookie *config.CookieConfig) *AuthHandler {
	h := &AuthHandler{authSvc: authSvc}
	if cookie != nil {
		h.cookie = *cookie
	}
	return h
}

// Register self-service sign-up for farmers and staff.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeValidation, "please check the registration form and try again")
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	msg := "Registration successful. You can now log in."
	if result.PendingApproval {
		msg = "Registration submitted. An administrator must approve your staff account before you can log in."
	}
	response.Created(c, msg, gin.H{"user": result.User, "pending_approval": result.PendingApproval})
}

// Login checks credentials and sets the access_token cookie.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeValidation, "email and password are required")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setTokenCookie(c, result.AccessToken, result.ExpiresIn)

	msg := "Welcome back, " + result.User.Name
	if result.DutySessionID != "" {
		msg += ". Your duty session is awaiting admin approval."
	}
	response.OK(c, msg, gin.H{
		"access_token":    result.AccessToken,
		"expires_in":      result.ExpiresIn,
		"user":            result.User,
		"duty_session_id": result.DutySessionID,
	})
}

// Logout revokes the token and ends the caller's duty session.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), sessionToken(c)); err != nil {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	h.setTokenCookie(c, "", -1)
	response.OK(c, "You have been logged out.", nil)
}

// GetCurrentUser profile of the caller.
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}
	response.OK(c, "", gin.H{"user": user})
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(sameSite(h.cookie.SameSite))
	c.SetCookie(middleware.AccessTokenCookie, token, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func sameSite(s string) http.SameSite {
	switch s {
	case "Strict", "strict":
		return http.SameSiteStrictMode
	case "None", "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, codeInvalidCredentials, err.Error())
	case errors.Is(err, service.ErrStaffPendingApproval):
		response.Forbidden(c, codePendingApproval, err.Error())
	case errors.Is(err, service.ErrAccountInactive):
		response.Forbidden(c, codeAccountInactive, err.Error())
	case errors.Is(err, service.ErrRoleMismatch):
		response.Forbidden(c, codeRoleMismatch, err.Error())
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, codeEmailExists, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, codeUserNotFound, err.Error())
	case errors.Is(err, service.ErrDutySessionActive):
		response.Conflict(c, codeDutyActive, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
