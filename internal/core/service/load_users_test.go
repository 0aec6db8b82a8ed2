package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/crediya/iam-service/internal/core/domain"
)

func TestLoadUsersService_Empty(t *testing.T) {
	svc := NewLoadUsersService(newStubUserRepo(), zerolog.Nop())

	users, err := svc.Execute(context.Background())
	if err != domain.ErrUsersNotFound {
		t.Fatalf("expected ErrUsersNotFound, got %v", err)
	}
	if users != nil {
		t.Fatalf("expected nil slice, got %v", users)
	}
}

func TestLoadUsersService_ReturnsAll(t *testing.T) {
	repo := newStubUserRepo()
	a := validUser()
	b := validUser()
	b.Email = "jane@mail.com"
	repo.put(a)
	repo.put(b)
	svc := NewLoadUsersService(repo, zerolog.Nop())

	users, err := svc.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestLoadUsersService_StoreErrorPropagates(t *testing.T) {
	repo := newStubUserRepo()
	boom := errors.New("connection reset")
	repo.findAllErr = boom
	svc := NewLoadUsersService(repo, zerolog.Nop())

	if _, err := svc.Execute(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
