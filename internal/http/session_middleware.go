package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklight/internal/domain"
	"tasklight/internal/service"
)

const (
	sessionCookieName = "auth_session"
	authIdentityKey   = "auth_identity"
)

// SessionAuthMiddleware resuelve la cookie de sesion a una identidad y la
// guarda en el contexto. A missing or malformed cookie is treated the same as
// no credential; only a storage fault produces a 5xx. The lookup is a pure
// read, session expiry never slides.
func SessionAuthMiddleware(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookieName)
		if err != nil || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
			c.Abort()
			return
		}

		ident, ok, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgServerFault})
			c.Abort()
			return
		}
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
			c.Abort()
			return
		}

		c.Set(authIdentityKey, ident)
		c.Next()
	}
}

// GetAuthIdentity obtiene la identidad autenticada desde el contexto.
func GetAuthIdentity(c *gin.Context) (domain.Identity, bool) {
	val, ok := c.Get(authIdentityKey)
	if !ok {
		return domain.Identity{}, false
	}
	ident, ok := val.(domain.Identity)
	return ident, ok
}
