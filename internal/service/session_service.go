package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tasklight/internal/domain"
	"tasklight/internal/repository"
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	sessionTokenBytes = 32
)

// SessionService emite, resuelve y revoca tokens de sesion opacos.
type SessionService struct {
	logger     *zap.Logger
	sessions   repository.SessionRepository
	identities repository.IdentityRepository
	ttl        time.Duration
	now        func() time.Time
}

func NewSessionService(
	logger *zap.Logger,
	sessions repository.SessionRepository,
	identities repository.IdentityRepository,
	ttl time.Duration,
) *SessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{
		logger:     logger,
		sessions:   sessions,
		identities: identities,
		ttl:        ttl,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create mints an opaque 256-bit random token for the identity and persists
// the session. The token is the only credential the client ever holds.
func (s *SessionService) Create(ctx context.Context, ident domain.Identity) (string, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)

	now := s.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    ident.ID,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a bearer token to its identity. Absent, expired, or revoked
// sessions and soft-deleted identities are ok=false, not errors; an error
// means the store itself failed and callers should answer with a server
// fault instead of denying access.
func (s *SessionService) Resolve(ctx context.Context, token string) (domain.Identity, bool, error) {
	if token == "" {
		return domain.Identity{}, false, nil
	}

	session, err := s.sessions.GetByToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Identity{}, false, nil
		}
		return domain.Identity{}, false, err
	}

	ident, err := s.identities.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Identity{}, false, nil
		}
		return domain.Identity{}, false, err
	}

	return ident, true, nil
}

// Revoke deletes the session record; revoking an absent token is a no-op.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		if s.logger != nil {
			s.logger.Error("revoke session failed", zap.Error(err))
		}
		return err
	}
	return nil
}
