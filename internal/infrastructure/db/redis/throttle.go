package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
)

// recordFailureScript increments the counter and gives it a TTL in one step.
// A counter left without a TTL is repaired on its next failure.
var recordFailureScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// LoginThrottle counts failed logins per normalized email.
// Key format: login:fail:<email>
type LoginThrottle struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewLoginThrottle wraps client. Non-positive limits fall back to the defaults.
func NewLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginThrottle{client: client, maxAttempts: int64(maxAttempts), window: window}
}

// Blocked reports whether email has used up its failed attempts for the current window.
func (t *LoginThrottle) Blocked(ctx context.Context, email string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(email)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n >= t.maxAttempts, nil
}

// RecordFailure bumps the counter for email. The window starts at the first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) (int64, error) {
	n, err := recordFailureScript.Run(ctx, t.client, []string{t.key(email)}, t.window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("throttle record failure: %w", err)
	}
	return n, nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	return t.client.Del(ctx, t.key(email)).Err()
}

func (t *LoginThrottle) key(email string) string {
	return fmt.Sprintf("login:fail:%s", email)
}
