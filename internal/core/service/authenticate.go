package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crediya/iam-service/internal/core/domain"
	"github.com/crediya/iam-service/internal/core/ports"
)

// AuthService exchanges email and password for a bearer token.
type AuthService struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	hasher ports.PasswordHasher
	issuer ports.TokenIssuer
	logger zerolog.Logger
	now    func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	hasher ports.PasswordHasher,
	issuer ports.TokenIssuer,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		roles:  roles,
		hasher: hasher,
		issuer: issuer,
		logger: logger,
		now:    time.Now,
	}
}

// Login fails with domain.ErrInvalidCredentials for blank input, an unknown
// email and a wrong password alike. A user whose role cannot be resolved gets
// domain.ErrRoleNotFound.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*domain.TokenResult, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(rawPassword) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	normalized := NormalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, normalized)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Info().Str("email", normalized).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(ctx, rawPassword, user.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Info().Str("email", normalized).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	role, err := s.roles.FindByID(ctx, user.RoleID)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			s.logger.Error().Int64("user_id", user.ID).Int64("role_id", user.RoleID).Msg("user references a missing role")
		}
		return nil, err
	}

	token, err := s.issuer.Issue(user.ID, user.Email, role.ID, role.Name, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", role.Name).Msg("login succeeded")
	return token, nil
}
