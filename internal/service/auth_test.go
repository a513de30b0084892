package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/leadintake/internal/models"
)

func newAuthFixture(t *testing.T) (*AuthService, *mockThrottle, *mockEnqueuer) {
	t.Helper()

	throttle := newMockThrottle()
	audit := &mockEnqueuer{}
	creds := &mockCredentials{email: "demo@example.com", password: "secret"}
	svc := NewAuthService(creds, newLiteStore(t), mockTokens{}, throttle, audit, quietLogger())

	return svc, throttle, audit
}

func TestLogin_Success(t *testing.T) {
	svc, throttle, audit := newAuthFixture(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "demo@example.com", "secret")
	require.NoError(t, err)

	assert.NotEmpty(t, session.User.UserID)
	assert.Equal(t, "demo@example.com", session.User.Email)
	assert.Equal(t, "tok-"+session.User.UserID, session.Token)
	assert.Equal(t, 1, throttle.resets["demo@example.com"])
	assert.Equal(t, []string{"auth.login"}, audit.actions())

	again, err := svc.Login(ctx, "demo@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, session.User.UserID, again.User.UserID)

	id, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.UserID, id.UserID)
}

func TestLogin_FailureIsThrottled(t *testing.T) {
	svc, throttle, audit := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, " Demo@Example.com", "wrong")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Equal(t, 1, throttle.failures["demo@example.com"])

	throttle.locked["demo@example.com"] = 90 * time.Second

	_, err = svc.Login(ctx, "demo@example.com", "secret")
	require.ErrorIs(t, err, models.ErrTooManyAttempts)

	var lockout *models.LockoutError
	require.ErrorAs(t, err, &lockout)
	assert.Equal(t, 90*time.Second, lockout.RetryAfter)
	assert.Empty(t, audit.actions())
}

func TestLogin_FailureThatLocksReportsLockout(t *testing.T) {
	svc, throttle, _ := newAuthFixture(t)
	throttle.lockAfter = 2
	ctx := context.Background()

	_, err := svc.Login(ctx, "demo@example.com", "wrong")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "demo@example.com", "wrong")
	require.ErrorIs(t, err, models.ErrTooManyAttempts)
	assert.Equal(t, 2, throttle.failures["demo@example.com"])
}

func TestLogin_CheckerFailureNotCounted(t *testing.T) {
	throttle := newMockThrottle()
	creds := &mockCredentials{err: errors.New("directory unavailable")}
	svc := NewAuthService(creds, newLiteStore(t), mockTokens{}, throttle, nil, quietLogger())

	_, err := svc.Login(context.Background(), "demo@example.com", "secret")
	require.Error(t, err)
	assert.Zero(t, throttle.failures["demo@example.com"])
}

func TestAuthenticate_Rejects(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	_, err = svc.Authenticate(context.Background(), "forged")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}
