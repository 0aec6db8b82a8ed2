package ports

import (
	"context"

	"github.com/crediya/iam-service/internal/core/domain"
)

// CreateUserService registers a new user.
type CreateUserService interface {
	Execute(ctx context.Context, candidate *domain.User) (*domain.User, error)
}

// AuthService exchanges credentials for a bearer token.
type AuthService interface {
	Login(ctx context.Context, email, rawPassword string) (*domain.TokenResult, error)
}

// ExistUserService checks that a document and an email belong to the same user.
type ExistUserService interface {
	Execute(ctx context.Context, document, email *string) (bool, error)
}

// LoadUsersService lists every registered user.
type LoadUsersService interface {
	Execute(ctx context.Context) ([]*domain.User, error)
}
