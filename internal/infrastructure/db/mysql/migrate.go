package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crediya/iam-service/internal/core/domain"
)

// AutoMigrate creates or updates the roles and users tables. Production
// schemas are managed outside the service; this is for local runs and tests.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&roleModel{}, &userModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SeedRoles inserts roles that are missing and leaves existing rows untouched.
func SeedRoles(ctx context.Context, db *gorm.DB, roles []domain.Role) error {
	if len(roles) == 0 {
		return nil
	}
	models := make([]roleModel, 0, len(roles))
	for _, r := range roles {
		models = append(models, roleModel{ID: r.ID, Name: r.Name, Description: r.Description})
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&models).Error
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return nil
}
