package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/crediya/iam-service/internal/core/domain"
)

// DefaultCost is the bcrypt work factor used in production.
const DefaultCost = 12

// Runner executes fn off the calling goroutine and waits for it.
// *queue.Pool satisfies it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// BcryptHasher implements ports.PasswordHasher.
type BcryptHasher struct {
	cost     int
	runner   Runner
	duration *prometheus.HistogramVec
}

// NewBcryptHasher returns a hasher that runs every bcrypt call on runner.
// duration may be nil; when set it must carry a single "op" label.
func NewBcryptHasher(cost int, runner Runner, duration *prometheus.HistogramVec) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d,%d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if runner == nil {
		return nil, errors.New("bcrypt hasher requires a runner")
	}
	return &BcryptHasher{cost: cost, runner: runner, duration: duration}, nil
}

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", fmt.Errorf("%w: password is blank", domain.ErrInvalidInput)
	}

	var (
		hash    []byte
		hashErr error
	)
	err := h.runner.Do(ctx, func() {
		defer h.observe("hash", time.Now())
		hash, hashErr = bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	})
	if err != nil {
		return "", err
	}
	if errors.Is(hashErr, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password exceeds 72 bytes", domain.ErrInvalidInput)
	}
	if hashErr != nil {
		return "", fmt.Errorf("hash password: %w", hashErr)
	}
	return string(hash), nil
}

// Verify reports false for a mismatch and for a malformed stored hash.
func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hashed string) (bool, error) {
	if hashed == "" {
		return false, nil
	}

	var match bool
	err := h.runner.Do(ctx, func() {
		defer h.observe("verify", time.Now())
		match = bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
	})
	if err != nil {
		return false, err
	}
	return match, nil
}

func (h *BcryptHasher) observe(op string, start time.Time) {
	if h.duration != nil {
		h.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
