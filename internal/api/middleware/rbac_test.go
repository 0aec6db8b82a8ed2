package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/crediya/iam-service/internal/core/domain"
)

func runRBAC(t *testing.T, p *domain.Principal, authorities ...string) (bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		c.Set(principalKey, *p)
	}

	called := false
	handler := RequireAuthority(authorities...)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return called, err
}

func wantStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != code {
		t.Fatalf("expected HTTP %d, got %v", code, err)
	}
}

func TestRequireAuthority_Allows(t *testing.T) {
	p := &domain.Principal{SubjectID: "1", Authorities: []string{"ROLE_ASESOR", "ROLE_CLIENTE"}}
	called, err := runRBAC(t, p, "ROLE_CLIENTE")
	if err != nil || !called {
		t.Fatalf("expected next to run, got called=%v err=%v", called, err)
	}
}

func TestRequireAuthority_AnyOf(t *testing.T) {
	p := &domain.Principal{SubjectID: "1", Authorities: []string{"ROLE_ADMIN"}}
	called, err := runRBAC(t, p, "ROLE_CLIENTE", "ROLE_ADMIN")
	if err != nil || !called {
		t.Fatalf("expected next to run, got called=%v err=%v", called, err)
	}
}

func TestRequireAuthority_Anonymous(t *testing.T) {
	called, err := runRBAC(t, nil, "ROLE_CLIENTE")
	if called {
		t.Fatalf("next must not run")
	}
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestRequireAuthority_Forbids(t *testing.T) {
	p := &domain.Principal{SubjectID: "1", Authorities: []string{"ROLE_ASESOR"}}
	called, err := runRBAC(t, p, "ROLE_CLIENTE")
	if called {
		t.Fatalf("next must not run")
	}
	wantStatus(t, err, http.StatusForbidden)
}

func TestRequireAuthority_NoAuthorities(t *testing.T) {
	p := &domain.Principal{SubjectID: "1"}
	_, err := runRBAC(t, p, "ROLE_CLIENTE")
	wantStatus(t, err, http.StatusForbidden)
}
