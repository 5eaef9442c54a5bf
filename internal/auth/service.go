package auth

import (
	"context"
	"log/slog"
)

// Service authenticates users and verifies their tokens.
type Service struct {
	creds  *Credentials
	tokens *Tokens
	logger *slog.Logger
}

// NewService creates a new auth service.
func NewService(creds *Credentials, tokens *Tokens, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{creds: creds, tokens: tokens, logger: logger}
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(_ context.Context, username, password string) (Token, error) {
	role, err := s.creds.Authenticate(username, password)
	if err != nil {
		s.logger.Warn("login failed", slog.String("username", username))
		return Token{}, err
	}
	tok, err := s.tokens.Issue(username, role)
	if err != nil {
		return Token{}, err
	}
	s.logger.Info("login succeeded", slog.String("username", username), slog.String("role", role))
	return tok, nil
}

// Verify validates a bearer token.
func (s *Service) Verify(raw string) (*Claims, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		s.logger.Debug("token rejected", slog.String("error", err.Error()))
		return nil, err
	}
	return claims, nil
}

// VerifyBasic checks HTTP Basic credentials and returns equivalent claims.
func (s *Service) VerifyBasic(username, password string) (*Claims, error) {
	role, err := s.creds.Authenticate(username, password)
	if err != nil {
		s.logger.Warn("basic auth failed", slog.String("username", username))
		return nil, err
	}
	c := &Claims{Role: role}
	c.Subject = username
	return c, nil
}
