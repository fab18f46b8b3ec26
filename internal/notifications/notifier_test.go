package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_PublishUserWithoutRedis(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "test payload"))
}

func TestNotifier_PublishNilSafe(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() {
		n.Publish(context.Background(), 1, EventShare, nil)
	})
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestParseUserChannel(t *testing.T) {
	id, ok := parseUserChannel("notifications:user:42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	_, ok = parseUserChannel("chat:conv:1")
	assert.False(t, ok)

	_, ok = parseUserChannel("notifications:user:abc")
	assert.False(t, ok)
}
