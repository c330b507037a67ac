package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tasklight/internal/domain"
)

type mockSessionRepo struct {
	byToken map[string]domain.Session
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{byToken: make(map[string]domain.Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, session domain.Session) error {
	if _, ok := m.byToken[session.Token]; ok {
		return errors.New("duplicate token")
	}
	m.byToken[session.Token] = session
	return nil
}

func (m *mockSessionRepo) GetByToken(_ context.Context, token string, now time.Time) (domain.Session, error) {
	session, ok := m.byToken[token]
	if !ok || !session.ExpiresAt.After(now) {
		return domain.Session{}, pgx.ErrNoRows
	}
	return session, nil
}

func (m *mockSessionRepo) DeleteByToken(_ context.Context, token string) error {
	delete(m.byToken, token)
	return nil
}

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

func seedIdentity(t *testing.T, idents *mockIdentityRepo, email string) domain.Identity {
	t.Helper()
	ident, err := idents.CreateOrUpdate(context.Background(), email, "")
	if err != nil {
		t.Fatalf("seed identity failed: %v", err)
	}
	return ident
}

func TestSessionServiceLifecycle(t *testing.T) {
	idents := newMockIdentityRepo()
	sessions := newMockSessionRepo()
	svc := NewSessionService(zap.NewNop(), sessions, idents, 0)
	ident := seedIdentity(t, idents, "a@x.com")

	token, err := svc.Create(context.Background(), ident)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if len(token) != sessionTokenBytes*2 {
		t.Fatalf("expected %d-char hex token, got %d chars", sessionTokenBytes*2, len(token))
	}

	resolved, ok, err := svc.Resolve(context.Background(), token)
	if err != nil || !ok {
		t.Fatalf("expected resolve to succeed, ok=%v err=%v", ok, err)
	}
	if resolved.ID != ident.ID {
		t.Fatalf("expected identity %s, got %s", ident.ID, resolved.ID)
	}

	if err := svc.Revoke(context.Background(), token); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if _, ok, err := svc.Resolve(context.Background(), token); err != nil || ok {
		t.Fatalf("expected revoked token to be absent, ok=%v err=%v", ok, err)
	}
}

func TestSessionServiceCreate_DistinctTokens(t *testing.T) {
	idents := newMockIdentityRepo()
	sessions := newMockSessionRepo()
	svc := NewSessionService(zap.NewNop(), sessions, idents, 0)
	ident := seedIdentity(t, idents, "a@x.com")

	t1, err := svc.Create(context.Background(), ident)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	t2, err := svc.Create(context.Background(), ident)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if t1 == t2 {
		t.Fatalf("expected distinct tokens")
	}
}

func TestSessionServiceResolve_Expired(t *testing.T) {
	idents := newMockIdentityRepo()
	sessions := newMockSessionRepo()
	svc := NewSessionService(zap.NewNop(), sessions, idents, 0)
	ident := seedIdentity(t, idents, "a@x.com")

	token, err := svc.Create(context.Background(), ident)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	svc.now = func() time.Time { return time.Now().UTC().Add(8 * 24 * time.Hour) }

	if _, ok, err := svc.Resolve(context.Background(), token); err != nil || ok {
		t.Fatalf("expected expired session to be absent, ok=%v err=%v", ok, err)
	}
}

func TestSessionServiceResolve_DeletedIdentity(t *testing.T) {
	idents := newMockIdentityRepo()
	sessions := newMockSessionRepo()
	svc := NewSessionService(zap.NewNop(), sessions, idents, 0)
	ident := seedIdentity(t, idents, "a@x.com")

	token, err := svc.Create(context.Background(), ident)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := idents.SoftDelete(context.Background(), ident.ID, time.Now().UTC()); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	if _, ok, err := svc.Resolve(context.Background(), token); err != nil || ok {
		t.Fatalf("expected session for deleted identity to be absent, ok=%v err=%v", ok, err)
	}
}

func TestSessionServiceResolve_StorageFault(t *testing.T) {
	svc := NewSessionService(zap.NewNop(), faultySessionRepo{}, newMockIdentityRepo(), 0)

	// Storage failure must stay distinguishable from "unauthenticated".
	if _, ok, err := svc.Resolve(context.Background(), "sometoken"); err == nil || ok {
		t.Fatalf("expected storage fault to surface as error, ok=%v err=%v", ok, err)
	}
}

func TestSessionServiceRevoke_Idempotent(t *testing.T) {
	svc := NewSessionService(zap.NewNop(), newMockSessionRepo(), newMockIdentityRepo(), 0)

	if err := svc.Revoke(context.Background(), "never-issued"); err != nil {
		t.Fatalf("expected revoking absent token to be a no-op, got %v", err)
	}
	if err := svc.Revoke(context.Background(), ""); err != nil {
		t.Fatalf("expected revoking empty token to be a no-op, got %v", err)
	}
}
