package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mzevk/estate-api/internal/apperror"
	"github.com/mzevk/estate-api/internal/auth"
	"github.com/mzevk/estate-api/internal/model"
	"github.com/mzevk/estate-api/internal/store"
)

// AuthService owns credential seeding and login. There is exactly one
// account — the admin seeded at first startup — and no registration flow.
type AuthService struct {
	store     store.Store
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(st store.Store, tokens *auth.TokenService, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:     st,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// EnsureAdmin seeds the admin credential if it does not exist yet. The
// password is stored as a bcrypt hash; the plaintext never touches disk.
// Idempotent — safe to run on every startup.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.store.FindByField(ctx, model.UsersCollection, "username", username)
	if err == nil {
		return nil // already seeded
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("checking admin user: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	id, err := s.store.Insert(ctx, model.UsersCollection, model.Record{
		"username": username,
		"password": hash,
	})
	if err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}

	s.logger.Info("admin user seeded",
		slog.String("username", username),
		slog.Int64("id", id),
	)
	return nil
}

// errInvalidCredentials is the single failure every bad login gets. Whether
// the username was unknown or the password wrong is deliberately
// indistinguishable — no user enumeration.
func errInvalidCredentials() error {
	return apperror.Unauthorized("invalid credentials")
}

// Login verifies the credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.FindByField(ctx, model.UsersCollection, "username", username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", errInvalidCredentials()
		}
		s.logger.Error("login lookup failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("looking up user: %w", err)
	}

	hash, _ := user["password"].(string)
	if err := s.passwords.Verify(hash, password); err != nil {
		s.logger.Info("failed login attempt", slog.String("username", username))
		return "", errInvalidCredentials()
	}

	token, err := s.tokens.Generate(user.ID(), username)
	if err != nil {
		s.logger.Error("token generation failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("login succeeded", slog.String("username", username))
	return token, nil
}
