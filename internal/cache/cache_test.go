package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		SetClient(nil)
		mr.Close()
	})
	return mr
}

type cachedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func TestAside_MissThenHit(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			calls++
			*dest = cachedUser{ID: 1, Username: "alice"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, UsernameKey("Alice"), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "alice", first.Username)
	assert.True(t, mr.Exists("user:name:alice"))

	var second cachedUser
	require.NoError(t, Aside(ctx, UsernameKey("alice"), &second, UserTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := useMiniredis(t)

	var dest cachedUser
	err := Aside(context.Background(), UserKey(9), &dest, UserTTL, func() error {
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.False(t, mr.Exists("user:9"))
}

func TestAside_WithoutRedis(t *testing.T) {
	SetClient(nil)

	var dest cachedUser
	err := Aside(context.Background(), UserKey(1), &dest, UserTTL, func() error {
		dest.ID = 1
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), dest.ID)
}

func TestRevoke(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	assert.False(t, IsRevoked(ctx, "abc"))
	require.NoError(t, Revoke(ctx, "abc", time.Hour))
	assert.True(t, IsRevoked(ctx, "abc"))
	assert.True(t, mr.Exists("blacklist:abc"))

	mr.FastForward(2 * time.Hour)
	assert.False(t, IsRevoked(ctx, "abc"))
}

func TestInvalidateUser(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, UserKey(3), cachedUser{ID: 3}, UserTTL))
	require.NoError(t, SetJSON(ctx, UsernameKey("bob"), cachedUser{ID: 3}, UserTTL))

	InvalidateUser(ctx, 3, "Bob")
	assert.False(t, mr.Exists("user:3"))
	assert.False(t, mr.Exists("user:name:bob"))
}
