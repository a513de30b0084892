// Package auth verifies sign-in credentials and issues the bearer tokens
// that identify callers of the API.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/persistorai/leadintake/internal/models"
)

// CredentialChecker verifies an email/password pair. It returns the verified
// identity without an ID (the caller assigns one) or
// models.ErrInvalidCredentials.
type CredentialChecker interface {
	Verify(ctx context.Context, email, password string) (*models.Identity, error)
}

// StaticCredentials accepts exactly one configured account.
type StaticCredentials struct {
	email string
	name  string
	hash  []byte
}

var _ CredentialChecker = (*StaticCredentials)(nil)

// NewStaticCredentials builds a checker for one account. passwordHash must
// be a bcrypt hash.
func NewStaticCredentials(email, name, passwordHash string) (*StaticCredentials, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("demo account email is empty")
	}

	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("demo account password hash: %w", err)
	}

	return &StaticCredentials{email: email, name: name, hash: []byte(passwordHash)}, nil
}

// HashPassword returns a bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	return string(hash), nil
}

// Verify implements CredentialChecker. The password hash is compared even
// when the email does not match so both failures take similar time.
func (c *StaticCredentials) Verify(_ context.Context, email, password string) (*models.Identity, error) {
	email = normalizeEmail(email)

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(c.email)) == 1
	passErr := bcrypt.CompareHashAndPassword(c.hash, []byte(password))

	if !emailOK || passErr != nil {
		return nil, models.ErrInvalidCredentials
	}

	return &models.Identity{Email: c.email, Name: c.name}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
