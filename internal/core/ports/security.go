package ports

import (
	"context"
	"time"

	"github.com/crediya/iam-service/internal/core/domain"
)

// PasswordHasher hashes and checks passwords with a deliberately slow function.
type PasswordHasher interface {
	// Hash fails with domain.ErrInvalidInput for a blank plaintext.
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify reports false for a mismatch or a malformed hash. The error is
	// non-nil only when ctx ends before the comparison runs.
	Verify(ctx context.Context, plaintext, hashed string) (bool, error)
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64, email string, roleID int64, roleName string, now time.Time) (*domain.TokenResult, error)
}

// TokenVerifier recovers a principal from a bearer token. Any problem with the
// token yields ok == false rather than an error.
type TokenVerifier interface {
	Verify(token string, now time.Time) (principal domain.Principal, ok bool)
}
