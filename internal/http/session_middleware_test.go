package http

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tasklight/internal/domain"
	"tasklight/internal/service"
)

type faultySessionRepo struct{}

func (faultySessionRepo) Create(context.Context, domain.Session) error {
	return errors.New("db down")
}

func (faultySessionRepo) GetByToken(context.Context, string, time.Time) (domain.Session, error) {
	return domain.Session{}, errors.New("db down")
}

func (faultySessionRepo) DeleteByToken(context.Context, string) error {
	return errors.New("db down")
}

func TestSessionAuthMiddleware_MissingCookie(t *testing.T) {
	f := newAuthFixture()

	rec := performRequest(f.router, http.MethodGet, "/profile", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", rec.Code)
	}
}

func TestSessionAuthMiddleware_GarbageToken(t *testing.T) {
	f := newAuthFixture()

	rec := performRequest(f.router, http.MethodGet, "/profile", nil, &http.Cookie{
		Name:  "auth_session",
		Value: "not-a-real-token",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", rec.Code)
	}
}

func TestSessionAuthMiddleware_StorageFault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessionSvc := service.NewSessionService(zap.NewNop(), faultySessionRepo{}, newMockIdentityRepo(), 0)

	r := gin.New()
	r.GET("/protected", SessionAuthMiddleware(sessionSvc), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := performRequest(r, http.MethodGet, "/protected", nil, &http.Cookie{
		Name:  "auth_session",
		Value: "sometoken",
	})
	// Storage failure is a server fault, not "unauthenticated".
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on storage fault, got %d", rec.Code)
	}
}

func TestSessionAuthMiddleware_SetsIdentity(t *testing.T) {
	f := newAuthFixture()
	cookie := loginAndVerify(t, f, "a@x.com")

	gin.SetMode(gin.TestMode)
	sessionSvc := service.NewSessionService(zap.NewNop(), f.sessions, f.idents, 0)

	r := gin.New()
	r.GET("/whoami", SessionAuthMiddleware(sessionSvc), func(c *gin.Context) {
		ident, ok := GetAuthIdentity(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": ident.Email})
	})

	rec := performRequest(r, http.MethodGet, "/whoami", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"email":"a@x.com"}` {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
