package ports

import (
	"context"

	"github.com/crediya/iam-service/internal/core/domain"
)

// UserRepository defines persistence operations for users.
// Lookups that match nothing return domain.ErrUserNotFound.
type UserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByDocument(ctx context.Context, document string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindAll(ctx context.Context) ([]*domain.User, error)
	// Save persists a new user and returns it with its assigned ID.
	// It fails with domain.ErrInvalidReference when RoleID is zero or unknown,
	// and with *domain.DuplicateEmailError when the email is already taken.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}

// RoleRepository is read-only: roles are provisioned outside this service.
type RoleRepository interface {
	// FindByID returns domain.ErrRoleNotFound when no role has the given id.
	FindByID(ctx context.Context, id int64) (*domain.Role, error)
}
