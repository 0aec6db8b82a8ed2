package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/crediya/iam-service/internal/core/domain"
)

type stubAuthService struct {
	loginFn func(ctx context.Context, email, password string) (*domain.TokenResult, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*domain.TokenResult, error) {
	return s.loginFn(ctx, email, password)
}

type stubThrottle struct {
	blocked  bool
	err      error
	failures map[string]int
	resets   []string
}

func newStubThrottle() *stubThrottle {
	return &stubThrottle{failures: make(map[string]int)}
}

func (s *stubThrottle) Blocked(_ context.Context, email string) (bool, error) {
	return s.blocked, s.err
}

func (s *stubThrottle) RecordFailure(_ context.Context, email string) (int64, error) {
	s.failures[email]++
	return int64(s.failures[email]), s.err
}

func (s *stubThrottle) Reset(_ context.Context, email string) error {
	s.resets = append(s.resets, email)
	return s.err
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*domain.TokenResult, error) {
			if email != " John@Mail.com" || password != "secret123" {
				t.Fatalf("unexpected args: %q %q", email, password)
			}
			return &domain.TokenResult{Token: "tok", TokenType: domain.TokenTypeBearer, ExpiresAt: 1700000000}, nil
		},
	}
	throttle := newStubThrottle()
	h := NewAuthHandler(stub, throttle, zerolog.Nop())

	c, rec := postJSON(e, "/login", `{"email":" John@Mail.com","password":"secret123"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "tok" || resp["tokenType"] != "Bearer" || resp["expiresAt"] != float64(1700000000) {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if len(throttle.resets) != 1 || throttle.resets[0] != "john@mail.com" {
		t.Fatalf("expected counter reset for normalized email, got %v", throttle.resets)
	}
}

func TestAuthHandler_Login_InvalidCredentialsRecordsFailure(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*domain.TokenResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	throttle := newStubThrottle()
	h := NewAuthHandler(stub, throttle, zerolog.Nop())

	c, _ := postJSON(e, "/login", `{"email":"JOHN@mail.com","password":"nope"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if throttle.failures["john@mail.com"] != 1 {
		t.Fatalf("expected one recorded failure, got %v", throttle.failures)
	}
}

func TestAuthHandler_Login_RoleNotFoundIsNotAFailedAttempt(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*domain.TokenResult, error) {
			return nil, domain.ErrRoleNotFound
		},
	}
	throttle := newStubThrottle()
	h := NewAuthHandler(stub, throttle, zerolog.Nop())

	c, _ := postJSON(e, "/login", `{"email":"john@mail.com","password":"secret123"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	if len(throttle.failures) != 0 {
		t.Fatalf("role integrity failures must not count against the user")
	}
}

func TestAuthHandler_Login_Throttled(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*domain.TokenResult, error) {
			t.Fatalf("service must not be called while throttled")
			return nil, nil
		},
	}
	throttle := newStubThrottle()
	throttle.blocked = true
	h := NewAuthHandler(stub, throttle, zerolog.Nop())

	c, _ := postJSON(e, "/login", `{"email":"john@mail.com","password":"secret123"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAuthHandler_Login_ThrottleFailsOpen(t *testing.T) {
	e := echo.New()
	called := false
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*domain.TokenResult, error) {
			called = true
			return &domain.TokenResult{Token: "tok", TokenType: domain.TokenTypeBearer}, nil
		},
	}
	throttle := newStubThrottle()
	throttle.blocked = true
	throttle.err = errors.New("redis down")
	h := NewAuthHandler(stub, throttle, zerolog.Nop())

	c, rec := postJSON(e, "/login", `{"email":"john@mail.com","password":"secret123"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected login to proceed, called=%v code=%d", called, rec.Code)
	}
}

func TestAuthHandler_Login_NilThrottle(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*domain.TokenResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, nil, zerolog.Nop())

	c, _ := postJSON(e, "/login", `{"email":"john@mail.com","password":"x"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := echo.New()
	h := NewAuthHandler(&stubAuthService{}, nil, zerolog.Nop())

	c, _ := postJSON(e, "/login", `{"email":`)
	err := h.Login(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
