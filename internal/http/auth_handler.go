package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tasklight/internal/service"
)

// Three user-facing failure strings; auth failures never say why.
const (
	msgInvalidCode  = "invalid or expired code"
	msgUnauthorized = "unauthorized"
	msgServerFault  = "something went wrong, try again"
)

// AuthHandler mantiene dependencias para los endpoints de autenticacion.
type AuthHandler struct {
	logger       *zap.Logger
	otpServ      *service.OTPService
	sessionServ  *service.SessionService
	cookieSecure bool
	sessionTTL   time.Duration
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(
	logger *zap.Logger,
	otpServ *service.OTPService,
	sessionServ *service.SessionService,
	cookieSecure bool,
	sessionTTL time.Duration,
) *AuthHandler {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &AuthHandler{
		logger:       logger,
		otpServ:      otpServ,
		sessionServ:  sessionServ,
		cookieSecure: cookieSecure,
		sessionTTL:   sessionTTL,
	}
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	h.issueCode(c, req.Email, req.DisplayName)
}

// Resend maneja POST /auth/resend. Issuing again invalidates the prior code.
func (h *AuthHandler) Resend(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid resend request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	h.issueCode(c, req.Email, "")
}

func (h *AuthHandler) issueCode(c *gin.Context, email, displayName string) {
	_, err := h.otpServ.IssueCode(c.Request.Context(), email, displayName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "valid email is required"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgServerFault})
		default:
			h.logger.Error("issue code failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgServerFault})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "otp_sent"})
}

// Verify maneja POST /auth/verify.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid verify request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ident, ok, err := h.otpServ.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		h.logger.Error("verify code failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgServerFault})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCode})
		return
	}

	token, err := h.sessionServ.Create(c.Request.Context(), ident)
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgServerFault})
		return
	}

	h.setSessionCookie(c, token, int(h.sessionTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"identity": ident})
}

// Logout maneja POST /auth/logout. Revocar un token ausente no es error.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := c.Cookie(sessionCookieName)
	if err == nil && token != "" {
		if err := h.sessionServ.Revoke(c.Request.Context(), token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgServerFault})
			return
		}
	}

	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

// CurrentToken maneja GET /auth/token.
func (h *AuthHandler) CurrentToken(c *gin.Context) {
	token, err := c.Cookie(sessionCookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"token": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, maxAge, "/", "", h.cookieSecure, true)
}
