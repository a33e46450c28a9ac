package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle counts failed logins per username in redis and locks the
// account out once the limit is reached. Without redis every check passes.
type LoginThrottle struct {
	rdb         *redis.Client
	maxAttempts int
	lockout     time.Duration
	logger      *slog.Logger
}

func NewLoginThrottle(rdb *redis.Client, maxAttempts int, lockout time.Duration, logger *slog.Logger) *LoginThrottle {
	return &LoginThrottle{
		rdb:         rdb,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		logger:      logger,
	}
}

func failuresKey(username string) string {
	return "login:failures:" + strings.ToLower(username)
}

func (t *LoginThrottle) enabled() bool {
	return t != nil && t.rdb != nil && t.maxAttempts > 0
}

func (t *LoginThrottle) Locked(ctx context.Context, username string) bool {
	if !t.enabled() {
		return false
	}
	n, err := t.rdb.Get(ctx, failuresKey(username)).Int()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		t.logger.Warn("Login throttle unavailable", "error", err)
		return false
	}
	return n >= t.maxAttempts
}

// RecordFailure increments the failure counter. The lockout window starts at
// the first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, username string) {
	if !t.enabled() {
		return
	}
	key := failuresKey(username)
	n, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		t.logger.Warn("Failed to record login failure", "error", err)
		return
	}
	if n == 1 {
		if err := t.rdb.Expire(ctx, key, t.lockout).Err(); err != nil {
			t.logger.Warn("Failed to set login lockout window", "error", err)
		}
	}
}

func (t *LoginThrottle) Reset(ctx context.Context, username string) {
	if !t.enabled() {
		return
	}
	if err := t.rdb.Del(ctx, failuresKey(username)).Err(); err != nil {
		t.logger.Warn("Failed to reset login failures", "error", err)
	}
}
