package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tasklight/internal/domain"
	"tasklight/internal/email"
	"tasklight/internal/repository"
)

var (
	ErrInvalidEmail     = errors.New("invalid email")
	ErrRateLimited      = errors.New("rate limited")
	ErrEmailSendFailure = errors.New("email send failed")
)

const defaultOTPTTL = 15 * time.Minute

// OTPService coordina emision y verificacion de codigos de acceso.
type OTPService struct {
	logger     *zap.Logger
	identities repository.IdentityRepository
	codes      repository.OTPRepository
	sender     email.Sender
	limiter    OTPRateLimiter
	ttl        time.Duration
	now        func() time.Time
}

func NewOTPService(
	logger *zap.Logger,
	identities repository.IdentityRepository,
	codes repository.OTPRepository,
	sender email.Sender,
	limiter OTPRateLimiter,
	ttl time.Duration,
) *OTPService {
	if limiter == nil {
		limiter = NewOTPRateLimiter(10*time.Minute, 3)
	}
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}
	return &OTPService{
		logger:     logger,
		identities: identities,
		codes:      codes,
		sender:     sender,
		limiter:    limiter,
		ttl:        ttl,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IssueCode resolves or creates the identity for the email, replaces any
// active code for it with a fresh 6-digit one, and hands the plaintext code
// to the email sender. The code never travels back to the HTTP caller.
//
// A send failure after the code row is committed is reported as
// ErrEmailSendFailure; the row stays persisted so a resend supersedes it.
func (s *OTPService) IssueCode(ctx context.Context, emailAddr, displayName string) (domain.Identity, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	displayName = strings.TrimSpace(displayName)
	if !isValidEmail(emailAddr) {
		return domain.Identity{}, ErrInvalidEmail
	}

	if s.limiter != nil && !s.limiter.Allow(emailAddr) {
		return domain.Identity{}, ErrRateLimited
	}

	ident, err := s.identities.CreateOrUpdate(ctx, emailAddr, displayName)
	if err != nil {
		return domain.Identity{}, err
	}

	code, err := generateCode()
	if err != nil {
		return domain.Identity{}, err
	}

	now := s.now()
	otp := domain.OneTimeCode{
		ID:        uuid.NewString(),
		UserID:    ident.ID,
		Email:     emailAddr,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.codes.Replace(ctx, otp); err != nil {
		return domain.Identity{}, err
	}

	if s.sender == nil {
		return domain.Identity{}, ErrEmailSendFailure
	}
	if err := s.sender.SendLoginCode(ctx, emailAddr, code, otp.ExpiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send login code failed", zap.Error(err), zap.String("email", emailAddr))
		}
		return domain.Identity{}, ErrEmailSendFailure
	}

	return ident, nil
}

// VerifyCode matches the submitted code against the newest active code for
// the email and consumes it on success, stamping the identity's last login.
//
// Every authentication failure (unknown email, wrong code, expired, already
// used) is the same ok=false result with no identity and no side effects, so
// callers cannot be used to probe which emails are registered. Errors are
// reserved for storage faults.
func (s *OTPService) VerifyCode(ctx context.Context, emailAddr, code string) (domain.Identity, bool, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	code = strings.TrimSpace(code)
	if !isValidEmail(emailAddr) || !isValidCode(code) {
		return domain.Identity{}, false, nil
	}

	ident, err := s.identities.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Identity{}, false, nil
		}
		return domain.Identity{}, false, err
	}

	now := s.now()
	if _, err := s.codes.ConsumeMatching(ctx, emailAddr, code, now); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Identity{}, false, nil
		}
		return domain.Identity{}, false, err
	}

	if err := s.identities.MarkAuthenticated(ctx, ident.ID, now); err != nil {
		return domain.Identity{}, false, err
	}

	ident.LastLoginAt = &now
	return ident, true, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func isValidEmail(emailAddr string) bool {
	return strings.Contains(emailAddr, "@")
}

func isValidCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// OTPRateLimiter limita la frecuencia de solicitudes de codigos por clave.
type OTPRateLimiter interface {
	Allow(key string) bool
}

type otpRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewOTPRateLimiter crea un rate limiter en memoria.
func NewOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &otpRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *otpRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return true
}
