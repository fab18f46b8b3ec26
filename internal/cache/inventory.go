package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	UsernameKeyPrefix = "user:name:%s"
	PostCountKey      = "posts:count"
	RevokedKeyPrefix  = "blacklist:%s"
)

const (
	UserTTL      = 5 * time.Minute
	PostCountTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func UsernameKey(username string) string {
	return fmt.Sprintf(UsernameKeyPrefix, strings.ToLower(username))
}

func RevokedKey(jti string) string {
	return fmt.Sprintf(RevokedKeyPrefix, jti)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateUser drops both cached lookups of a user.
func InvalidateUser(ctx context.Context, userID uint, username string) {
	Invalidate(ctx, UserKey(userID), UsernameKey(username))
}

// InvalidatePostCount drops the cached explore total.
func InvalidatePostCount(ctx context.Context) {
	Invalidate(ctx, PostCountKey)
}

// Revoke marks a session token id as revoked until ttl elapses.
func Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return client.Set(ctx, RevokedKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked. Lookup errors report false.
func IsRevoked(ctx context.Context, jti string) bool {
	if client == nil || jti == "" {
		return false
	}
	n, err := client.Exists(ctx, RevokedKey(jti)).Result()
	return err == nil && n > 0
}
