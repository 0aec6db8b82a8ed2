package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crediya/iam-service/internal/core/domain"
)

type stubUserRepo struct {
	users  map[string]*domain.User // keyed by email
	nextID int64
	roles  map[int64]*domain.Role

	existsCalls int
	findCalls   int
	saveCalls   int
	findAllErr  error
}

func newStubUserRepo(roles ...*domain.Role) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User), roles: make(map[int64]*domain.Role)}
	for _, role := range roles {
		r.roles[role.ID] = role
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.existsCalls++
	_, ok := r.users[email]
	return ok, nil
}

func (r *stubUserRepo) FindByDocument(_ context.Context, document string) (*domain.User, error) {
	r.findCalls++
	for _, u := range r.users {
		if u.IdentityDocument == document {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.findCalls++
	if u, ok := r.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindAll(_ context.Context) ([]*domain.User, error) {
	if r.findAllErr != nil {
		return nil, r.findAllErr
	}
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) Save(_ context.Context, u *domain.User) (*domain.User, error) {
	r.saveCalls++
	if _, ok := r.roles[u.RoleID]; u.RoleID == 0 || !ok {
		return nil, domain.ErrInvalidReference
	}
	if _, ok := r.users[u.Email]; ok {
		return nil, &domain.DuplicateEmailError{Email: u.Email}
	}
	r.nextID++
	saved := cloneUser(u)
	saved.ID = r.nextID
	r.users[saved.Email] = cloneUser(saved)
	return saved, nil
}

// put stores u as-is, bypassing Save's checks.
func (r *stubUserRepo) put(u *domain.User) {
	r.nextID++
	c := cloneUser(u)
	c.ID = r.nextID
	r.users[c.Email] = c
}

type stubRoleRepo struct {
	roles map[int64]*domain.Role
	calls int
}

func (r *stubRoleRepo) FindByID(_ context.Context, id int64) (*domain.Role, error) {
	r.calls++
	if role, ok := r.roles[id]; ok {
		c := *role
		return &c, nil
	}
	return nil, domain.ErrRoleNotFound
}

// stubHasher produces "h<n>:<plaintext>" so two hashes of the same input differ.
type stubHasher struct {
	hashCalls   int
	verifyCalls int
}

func (h *stubHasher) Hash(_ context.Context, plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", domain.ErrInvalidInput
	}
	h.hashCalls++
	return fmt.Sprintf("h%d:%s", h.hashCalls, plaintext), nil
}

func (h *stubHasher) Verify(_ context.Context, plaintext, hashed string) (bool, error) {
	h.verifyCalls++
	_, stored, ok := strings.Cut(hashed, ":")
	return ok && stored == plaintext, nil
}

type issuedToken struct {
	userID   int64
	email    string
	roleID   int64
	roleName string
}

type stubIssuer struct {
	last  *issuedToken
	err   error
	calls int
}

func (i *stubIssuer) Issue(userID int64, email string, roleID int64, roleName string, now time.Time) (*domain.TokenResult, error) {
	i.calls++
	if i.err != nil {
		return nil, i.err
	}
	i.last = &issuedToken{userID: userID, email: email, roleID: roleID, roleName: roleName}
	return &domain.TokenResult{
		Token:     fmt.Sprintf("token-%d-%s", userID, roleName),
		TokenType: domain.TokenTypeBearer,
		ExpiresAt: now.Add(time.Hour).Unix(),
	}, nil
}

func salary(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validUser() *domain.User {
	return domain.NewUser(
		"John", "Doe",
		time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		"Calle 1 # 2-3",
		"3001234567",
		"john.doe@mail.com",
		salary("2500000.50"),
		"123456789",
		1,
		"secret123",
	)
}
