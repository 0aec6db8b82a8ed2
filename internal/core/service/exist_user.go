package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/crediya/iam-service/internal/core/domain"
	"github.com/crediya/iam-service/internal/core/ports"
)

// ExistUserService confirms that a document is registered to a given email.
type ExistUserService struct {
	users  ports.UserRepository
	logger zerolog.Logger
}

func NewExistUserService(users ports.UserRepository, logger zerolog.Logger) *ExistUserService {
	return &ExistUserService{users: users, logger: logger}
}

// Execute returns true when the document belongs to email. It never returns
// false: an unknown document yields domain.ErrUsersNotFound and a different
// email yields domain.ErrEmailMismatch.
func (s *ExistUserService) Execute(ctx context.Context, document, email *string) (bool, error) {
	if document == nil || email == nil {
		return false, domain.ErrMissingInput
	}

	doc, err := ValidateDocument(*document)
	if err != nil {
		return false, err
	}

	user, err := s.users.FindByDocument(ctx, doc)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, domain.ErrUsersNotFound
	}
	if err != nil {
		return false, err
	}

	if !strings.EqualFold(strings.TrimSpace(user.Email), strings.TrimSpace(*email)) {
		s.logger.Warn().Str("document", MaskDocument(doc)).Msg("email does not match registered document")
		return false, domain.ErrEmailMismatch
	}
	return true, nil
}
