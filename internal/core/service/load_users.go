package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/crediya/iam-service/internal/core/domain"
	"github.com/crediya/iam-service/internal/core/ports"
)

type LoadUsersService struct {
	users  ports.UserRepository
	logger zerolog.Logger
}

func NewLoadUsersService(users ports.UserRepository, logger zerolog.Logger) *LoadUsersService {
	return &LoadUsersService{users: users, logger: logger}
}

// Execute re-queries the store on every call. An empty store is reported as
// domain.ErrUsersNotFound rather than an empty slice.
func (s *LoadUsersService) Execute(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, domain.ErrUsersNotFound
	}
	s.logger.Debug().Int("count", len(users)).Msg("users loaded")
	return users, nil
}
