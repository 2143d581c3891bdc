package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/greenthumb/internal/infrastructure/redis"
)

const (
	revokedKeyPrefix = "revoked_jti:"
	markerValue    = "1"
)

// RedisTokenDenylist implements domain.TokenDenylist. Entries expire with
// the token they revoke.
type RedisTokenDenylist struct {
	client *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewRedisTokenDenylist(client *redis.Client, logger *slog.Logger) *RedisTokenDenylist {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisTokenDenylist{client: client, logger: logger, now: time.Now}
}

func (d *RedisTokenDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil // already expired, nothing to deny
	}
	if err := d.client.Set(ctx, revokedKeyPrefix+jti, markerValue, ttl); err != nil {
		d.logger.Error("failed to revoke token", slog.String("jti", jti), slog.String("error", err.Error()))
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (d *RedisTokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := d.client.Exists(ctx, revokedKeyPrefix+jti)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return revoked, nil
}

// RedisNotificationLedger implements domain.NotificationLedger with SETNX so
// concurrent sweepers in different processes claim each reminder once.
type RedisNotificationLedger struct {
	client *redis.Client
}

func NewRedisNotificationLedger(client *redis.Client) *RedisNotificationLedger {
	return &RedisNotificationLedger{client: client}
}

func (l *RedisNotificationLedger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, markerValue, ttl)
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}
