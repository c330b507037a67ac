package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tasklight/internal/repository"
	"tasklight/internal/service"
)

// ProfileHandler mantiene dependencias para los endpoints de perfil.
type ProfileHandler struct {
	logger       *zap.Logger
	identities   repository.IdentityRepository
	sessionServ  *service.SessionService
	cookieSecure bool
}

// NewProfileHandler crea una instancia de ProfileHandler.
func NewProfileHandler(
	logger *zap.Logger,
	identities repository.IdentityRepository,
	sessionServ *service.SessionService,
	cookieSecure bool,
) *ProfileHandler {
	return &ProfileHandler{
		logger:       logger,
		identities:   identities,
		sessionServ:  sessionServ,
		cookieSecure: cookieSecure,
	}
}

// Get maneja GET /profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	ident, ok := GetAuthIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
		return
	}
	c.JSON(http.StatusOK, gin.H{"identity": ident})
}

// Update maneja PUT /profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	ident, ok := GetAuthIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
		return
	}

	var req struct {
		DisplayName string `json:"display_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid profile update request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	updated, err := h.identities.CreateOrUpdate(c.Request.Context(), ident.Email, req.DisplayName)
	if err != nil {
		h.logger.Error("update profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgServerFault})
		return
	}

	c.JSON(http.StatusOK, gin.H{"identity": updated})
}

// Delete maneja DELETE /profile. Soft-deletes the account and revokes the
// current session.
func (h *ProfileHandler) Delete(c *gin.Context) {
	ident, ok := GetAuthIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
		return
	}

	if err := h.identities.SoftDelete(c.Request.Context(), ident.ID, time.Now().UTC()); err != nil {
		h.logger.Error("soft delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgServerFault})
		return
	}

	if token, err := c.Cookie(sessionCookieName); err == nil && token != "" {
		_ = h.sessionServ.Revoke(c.Request.Context(), token)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", h.cookieSecure, true)
	c.Status(http.StatusNoContent)
}
