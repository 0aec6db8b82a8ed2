package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/crediya/iam-service/internal/core/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&userModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) FindByDocument(ctx context.Context, document string) (*domain.User, error) {
	return r.findOne(ctx, "identity_document = ?", document)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var m userModel
	err := r.db.WithContext(ctx).Where(query, arg).Order("id").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return m.toDomain(), nil
}

// FindAll returns every user ordered by id.
func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	var models []userModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]*domain.User, 0, len(models))
	for _, m := range models {
		users = append(users, m.toDomain())
	}
	return users, nil
}

// Save inserts u after checking that its role exists. The unique index on
// email is the final guard against a concurrent registration.
func (r *UserRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u.RoleID == 0 {
		return nil, domain.ErrInvalidReference
	}
	var roles int64
	if err := r.db.WithContext(ctx).Model(&roleModel{}).Where("id = ?", u.RoleID).Count(&roles).Error; err != nil {
		return nil, fmt.Errorf("check role: %w", err)
	}
	if roles == 0 {
		return nil, domain.ErrInvalidReference
	}

	m := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &domain.DuplicateEmailError{Email: u.Email}
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return m.toDomain(), nil
}

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) FindByID(ctx context.Context, id int64) (*domain.Role, error) {
	var m roleModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}
	return m.toDomain(), nil
}
