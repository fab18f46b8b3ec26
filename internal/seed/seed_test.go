package seed

import (
	"testing"

	"devcentral/internal/models"
	"devcentral/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsernameFor(t *testing.T) {
	assert.Equal(t, "mary_oconnor42", usernameFor("Mary", "O'Connor", 42))
	assert.Equal(t, "jos_garca7", usernameFor("José", "García", 7))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "éé", truncate("ééé", 2))
}

func TestSeedSocialMesh_NoSelfFollows(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db)

	users, err := s.SeedSocialMesh(6)
	require.NoError(t, err)
	require.Len(t, users, 6)

	var profiles int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(6), profiles)

	var self int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = following_id").Count(&self).Error)
	assert.Zero(t, self)

	var edges int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&edges).Error)
	assert.Positive(t, edges)
}

func TestSeedEngagement_CountersMatchRows(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db)

	users, err := s.SeedSocialMesh(5)
	require.NoError(t, err)
	stats, err := s.SeedEngagement(users, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Posts)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 12)

	for _, p := range posts {
		assert.NotEmpty(t, p.Body)
		assert.LessOrEqual(t, len([]rune(p.Body)), models.MaxPostBodyLength)

		var likes, dislikes, shares int64
		require.NoError(t, db.Model(&models.Reaction{}).Where("post_id = ? AND kind = ?", p.ID, models.ReactionLike).Count(&likes).Error)
		require.NoError(t, db.Model(&models.Reaction{}).Where("post_id = ? AND kind = ?", p.ID, models.ReactionDislike).Count(&dislikes).Error)
		require.NoError(t, db.Model(&models.Share{}).Where("post_id = ?", p.ID).Count(&shares).Error)
		assert.Equal(t, int(likes), p.LikesCount, "post %d likes", p.ID)
		assert.Equal(t, int(dislikes), p.DislikesCount, "post %d dislikes", p.ID)
		assert.Equal(t, int(shares), p.SharesCount, "post %d shares", p.ID)
	}
}

func TestClearAll(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db)

	users, err := s.SeedSocialMesh(3)
	require.NoError(t, err)
	_, err = s.SeedEngagement(users, 4)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll())

	for _, m := range []any{&models.User{}, &models.Post{}, &models.Follow{}, &models.Reaction{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestFactoryCreateFollow_DuplicateIsNoOp(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := NewSeeder(db).Factory()

	a, err := f.CreateUser()
	require.NoError(t, err)
	b, err := f.CreateUser()
	require.NoError(t, err)

	created, err := f.CreateFollow(a, b)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.CreateFollow(a, b)
	require.NoError(t, err)
	assert.False(t, created)

	var edges int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&edges).Error)
	assert.Equal(t, int64(1), edges)
}
