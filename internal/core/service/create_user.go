package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/crediya/iam-service/internal/core/domain"
	"github.com/crediya/iam-service/internal/core/ports"
)

// CreateUserService registers a new user: validate, check email uniqueness,
// hash the password, then persist.
type CreateUserService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	logger zerolog.Logger
}

func NewCreateUserService(users ports.UserRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *CreateUserService {
	return &CreateUserService{users: users, hasher: hasher, logger: logger}
}

func (s *CreateUserService) Execute(ctx context.Context, candidate *domain.User) (*domain.User, error) {
	user, err := ValidateAndNormalize(candidate)
	if err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.Warn().Str("email", user.Email).Msg("registration rejected: email already registered")
		return nil, &domain.DuplicateEmailError{Email: user.Email}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(ctx, user.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hash

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", saved.ID).
		Int64("role_id", saved.RoleID).
		Str("document", MaskDocument(saved.IdentityDocument)).
		Msg("user registered")
	return saved, nil
}

// MaskDocument keeps the first and last two characters of an identity document.
func MaskDocument(doc string) string {
	if len(doc) <= 4 {
		return "****"
	}
	masked := []byte(doc)
	for i := 2; i < len(masked)-2; i++ {
		masked[i] = '*'
	}
	return string(masked)
}
