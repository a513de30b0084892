package auth

import (
	"context"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/leadintake/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestCredentials(t *testing.T) *StaticCredentials {
	t.Helper()

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	creds, err := NewStaticCredentials(" Demo@Example.com ", "Demo Agent", hash)
	require.NoError(t, err)

	return creds
}

func TestStaticCredentials_Verify(t *testing.T) {
	creds := newTestCredentials(t)
	ctx := context.Background()

	id, err := creds.Verify(ctx, "DEMO@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", id.Email)
	assert.Equal(t, "Demo Agent", id.Name)
	assert.Empty(t, id.UserID)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "demo@example.com", "battery staple"},
		{"wrong email", "other@example.com", "correct horse"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := creds.Verify(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, models.ErrInvalidCredentials)
		})
	}
}

func TestNewStaticCredentials_RejectsBadConfig(t *testing.T) {
	_, err := NewStaticCredentials("", "x", "$2a$10$abcdefghijklmnopqrstuv")
	assert.Error(t, err)

	_, err = NewStaticCredentials("demo@example.com", "x", "plaintext")
	assert.Error(t, err)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)
	in := models.Identity{UserID: "4b1f6f7e-0c6b-4a53-9d55-6f7f5b0f2a10", Email: "demo@example.com", Name: "Demo"}

	token, exp, err := svc.Issue(in)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	out, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestTokenService_RejectsInvalid(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)
	id := models.Identity{UserID: "u1", Email: "demo@example.com"}

	token, _, err := svc.Issue(id)
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		other := NewTokenService("ffffffffffffffffffffffffffffffff", time.Hour)
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenService(testSecret, time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err := late.Parse(token)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Parse("not-a-token")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := Claims{
			Email: "demo@example.com",
			RegisteredClaims: jwtlib.RegisteredClaims{
				Subject:   "u1",
				Issuer:    tokenIssuer,
				ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}

		none, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Parse(none)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("missing subject", func(t *testing.T) {
		anon, _, err := svc.Issue(models.Identity{Email: "demo@example.com"})
		require.NoError(t, err)

		_, err = svc.Parse(anon)
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})
}
