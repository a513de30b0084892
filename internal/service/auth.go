package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/leadintake/internal/auth"
	"github.com/persistorai/leadintake/internal/domain"
	"github.com/persistorai/leadintake/internal/models"
)

var _ domain.AuthService = (*AuthService)(nil)

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(id models.Identity) (string, time.Time, error)
	Parse(token string) (*models.Identity, error)
}

// LoginThrottle tracks failed sign-ins per key. Locked and RecordFailure
// return the remaining lockout, zero when the key may still sign in.
type LoginThrottle interface {
	Locked(key string) time.Duration
	RecordFailure(key string) time.Duration
	Reset(key string)
}

// AuthService signs users in against a CredentialChecker and verifies the
// tokens it issues.
type AuthService struct {
	creds       auth.CredentialChecker
	users       domain.UserStore
	tokens      TokenIssuer
	throttle    LoginThrottle
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewAuthService creates an AuthService. throttle may be nil.
func NewAuthService(
	creds auth.CredentialChecker,
	users domain.UserStore,
	tokens TokenIssuer,
	throttle LoginThrottle,
	auditWorker AuditEnqueuer,
	log *logrus.Logger,
) *AuthService {
	return &AuthService{
		creds:       creds,
		users:       users,
		tokens:      tokens,
		throttle:    throttle,
		auditWorker: auditWorker,
		log:         log,
	}
}

// Login verifies the credentials, records the user and returns a signed session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	if s.throttle != nil {
		if d := s.throttle.Locked(key); d > 0 {
			return nil, &models.LockoutError{RetryAfter: d}
		}
	}

	verified, err := s.creds.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) && s.throttle != nil {
			if d := s.throttle.RecordFailure(key); d > 0 {
				return nil, &models.LockoutError{RetryAfter: d}
			}
		}

		return nil, err
	}

	if s.throttle != nil {
		s.throttle.Reset(key)
	}

	user, err := s.users.UpsertUser(ctx, verified.Email, verified.Name)
	if err != nil {
		return nil, fmt.Errorf("recording user: %w", err)
	}

	id := models.Identity{UserID: user.ID, Email: user.Email, Name: user.Name}

	token, exp, err := s.tokens.Issue(id)
	if err != nil {
		return nil, err
	}

	enqueueAudit(s.auditWorker, models.AuditRecord{
		Action:     models.AuditLogin,
		EntityType: models.AuditEntityUser,
		EntityID:   user.ID,
		Actor:      user.ID,
	})
	s.log.WithField("user_id", user.ID).Info(models.AuditLogin)

	return &models.Session{Token: token, ExpiresAt: exp, User: id}, nil
}

// Authenticate returns the identity carried by a valid token.
func (s *AuthService) Authenticate(_ context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, models.ErrUnauthenticated
	}

	return s.tokens.Parse(token)
}
