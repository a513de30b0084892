package client

import "context"

// AuthService handles sign-in.
type AuthService struct {
	c *Client
}

// Login exchanges credentials for a session and makes the client use its token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var session Session
	if err := s.c.post(ctx, "/api/v1/auth/login", body, &session); err != nil {
		return nil, err
	}
	s.c.SetToken(session.Token)
	return &session, nil
}

// Me returns the identity the current token belongs to.
func (s *AuthService) Me(ctx context.Context) (*Identity, error) {
	var id Identity
	if err := s.c.get(ctx, "/api/v1/auth/me", nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}
