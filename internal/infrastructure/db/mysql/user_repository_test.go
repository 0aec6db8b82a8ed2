package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/crediya/iam-service/internal/core/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), newGormConfig(zerolog.Nop()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := SeedRoles(context.Background(), db, domain.DefaultRoles); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func newUser(email, document string) *domain.User {
	s := decimal.RequireFromString("2500000.50")
	return domain.NewUser("John", "Doe",
		time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		"Calle 1", "3001234567", email, &s, document, 1, "$2a$04$hash")
}

func TestUserRepository_SaveAndFind(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newUser("john@mail.com", "123456789"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	byEmail, err := repo.FindByEmail(ctx, "john@mail.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if byEmail.ID != saved.ID || byEmail.Password != "$2a$04$hash" || !byEmail.Active {
		t.Fatalf("unexpected user %+v", byEmail)
	}
	if byEmail.BaseSalary == nil || !byEmail.BaseSalary.Equal(decimal.RequireFromString("2500000.5")) {
		t.Fatalf("unexpected salary %v", byEmail.BaseSalary)
	}
	if !byEmail.Birthdate.Equal(time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected birthdate %v", byEmail.Birthdate)
	}

	byDoc, err := repo.FindByDocument(ctx, "123456789")
	if err != nil || byDoc.Email != "john@mail.com" {
		t.Fatalf("FindByDocument: %+v, %v", byDoc, err)
	}

	exists, err := repo.ExistsByEmail(ctx, "john@mail.com")
	if err != nil || !exists {
		t.Fatalf("ExistsByEmail: %v, %v", exists, err)
	}
	exists, _ = repo.ExistsByEmail(ctx, "nobody@mail.com")
	if exists {
		t.Fatalf("expected unknown email to not exist")
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.FindByEmail(ctx, "ghost@mail.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByDocument(ctx, "000000000"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.Save(ctx, newUser("john@mail.com", "123456789")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, err := repo.Save(ctx, newUser("john@mail.com", "987654321"))
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUserRepository_InvalidRole(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	for _, roleID := range []int64{0, 42} {
		u := newUser("john@mail.com", "123456789")
		u.RoleID = roleID
		if _, err := repo.Save(ctx, u); !errors.Is(err, domain.ErrInvalidReference) {
			t.Fatalf("role %d: expected ErrInvalidReference, got %v", roleID, err)
		}
	}
}

func TestUserRepository_FindAllOrdered(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	users, err := repo.FindAll(ctx)
	if err != nil || len(users) != 0 {
		t.Fatalf("expected empty store, got %v, %v", users, err)
	}

	for _, e := range []string{"a@mail.com", "b@mail.com", "c@mail.com"} {
		if _, err := repo.Save(ctx, newUser(e, "123456789")); err != nil {
			t.Fatalf("Save %s: %v", e, err)
		}
	}
	users, err = repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(users) != 3 || users[0].Email != "a@mail.com" || users[2].Email != "c@mail.com" {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestRoleRepository_FindByID(t *testing.T) {
	repo := NewRoleRepository(openTestDB(t))

	role, err := repo.FindByID(context.Background(), 2)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if role.Name != "ASESOR" {
		t.Fatalf("unexpected role %+v", role)
	}
	if _, err := repo.FindByID(context.Background(), 99); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestSeedRoles_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := SeedRoles(context.Background(), db, domain.DefaultRoles); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	var count int64
	db.Model(&roleModel{}).Count(&count)
	if count != int64(len(domain.DefaultRoles)) {
		t.Fatalf("expected %d roles, got %d", len(domain.DefaultRoles), count)
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 3306, User: "iam", Password: "pw", Database: "crediya"}
	want := "iam:pw@tcp(db:3306)/crediya?charset=utf8mb4&parseTime=True&loc=UTC"
	if got := cfg.DSN(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
