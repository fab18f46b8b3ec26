package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"devcentral/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateWithProfile_SQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "profiles"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	user := &models.User{Username: "ada", Email: "ada@example.com", Password: "hash"}
	profile := &models.Profile{Bio: "hi"}
	require.NoError(t, repo.CreateWithProfile(context.Background(), user, profile))

	assert.Equal(t, uint(7), profile.UserID)
	assert.Same(t, profile, user.Profile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateWithProfile_RollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "profiles"`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateWithProfile(context.Background(), &models.User{Username: "ada"}, &models.Profile{})
	assert.True(t, models.HasCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := newSQLite(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createUser(t, db, "alice")

	taken, err := repo.UsernameTaken(ctx, "ALICE")
	require.NoError(t, err)
	assert.True(t, taken)

	err = repo.CreateWithProfile(ctx, &models.User{Username: "alice", Email: "x@example.com", Password: "h"}, &models.Profile{})
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeValidation))

	var profiles int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles)
}

func TestUserRepository_LookupsAndProfileUpdate(t *testing.T) {
	db := newSQLite(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	createUser(t, db, "bob")

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	require.NotNil(t, got.Profile)

	got.Profile.Bio = "gopher"
	got.Profile.Avatar = "avatars/1/a.jpg"
	require.NoError(t, repo.UpdateProfile(ctx, got))

	reloaded, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "gopher", reloaded.Profile.Bio)
	assert.Equal(t, "avatars/1/a.jpg", reloaded.Profile.Avatar)

	hash, err := repo.GetPasswordHash(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", hash)

	others, err := repo.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, "bob", others[0].Username)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserRepository_DeleteCascade(t *testing.T) {
	db := newSQLite(t)
	repo := NewUserRepository(db)
	reactions := NewReactionRepository(db)
	replies := NewReplyRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	doomed := createUser(t, db, "doomed")
	other := createUser(t, db, "other")

	own := createPost(t, db, doomed.ID, "mine", time.Now())
	theirs := createPost(t, db, other.ID, "theirs", time.Now())

	_, _, err := reactions.Toggle(ctx, theirs.ID, doomed.ID, models.ReactionLike)
	require.NoError(t, err)
	_, _, err = reactions.Toggle(ctx, theirs.ID, other.ID, models.ReactionLike)
	require.NoError(t, err)
	_, _, err = reactions.Toggle(ctx, own.ID, other.ID, models.ReactionDislike)
	require.NoError(t, err)
	_, err = reactions.AddShare(ctx, theirs.ID, doomed.ID)
	require.NoError(t, err)

	require.NoError(t, replies.Create(ctx, &models.Reply{PostID: theirs.ID, AuthorID: doomed.ID, Body: "mine on theirs"}))
	require.NoError(t, replies.Create(ctx, &models.Reply{PostID: own.ID, AuthorID: other.ID, Body: "theirs on mine"}))
	require.NoError(t, replies.Create(ctx, &models.Reply{PostID: theirs.ID, AuthorID: other.ID, Body: "kept"}))

	_, err = follows.Create(ctx, doomed.ID, other.ID)
	require.NoError(t, err)
	_, err = follows.Create(ctx, other.ID, doomed.ID)
	require.NoError(t, err)

	require.NoError(t, db.Omit("Author").Create(&models.CodeSnippet{AuthorID: doomed.ID, Title: "t", Language: "go", Code: "x"}).Error)

	require.NoError(t, repo.DeleteCascade(ctx, doomed.ID))

	count := func(model interface{}, where string, args ...interface{}) int64 {
		var n int64
		require.NoError(t, db.Model(model).Where(where, args...).Count(&n).Error)
		return n
	}

	assert.Zero(t, count(&models.User{}, "id = ?", doomed.ID))
	assert.Zero(t, count(&models.Profile{}, "user_id = ?", doomed.ID))
	assert.Zero(t, count(&models.Post{}, "author_id = ?", doomed.ID))
	assert.Zero(t, count(&models.Reply{}, "author_id = ? OR post_id = ?", doomed.ID, own.ID))
	assert.Zero(t, count(&models.Reaction{}, "user_id = ? OR post_id = ?", doomed.ID, own.ID))
	assert.Zero(t, count(&models.Share{}, "user_id = ?", doomed.ID))
	assert.Zero(t, count(&models.Follow{}, "follower_id = ? OR following_id = ?", doomed.ID, doomed.ID))
	assert.Zero(t, count(&models.CodeSnippet{}, "author_id = ?", doomed.ID))
	assert.Equal(t, int64(1), count(&models.Reply{}, "body = ?", "kept"))

	var survivor models.Post
	require.NoError(t, db.First(&survivor, theirs.ID).Error)
	assert.Equal(t, 1, survivor.LikesCount)
	assert.Equal(t, 0, survivor.SharesCount)

	err = repo.DeleteCascade(ctx, doomed.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
