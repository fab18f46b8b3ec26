package repository

import (
	"testing"
	"time"

	"devcentral/internal/models"
	"devcentral/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Password: "hash"}
	require.NoError(t, NewUserRepository(db).CreateWithProfile(t.Context(), user, &models.Profile{}))
	return user
}

func createPost(t *testing.T, db *gorm.DB, authorID uint, body string, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{AuthorID: authorID, Body: body, CreatedAt: at}
	require.NoError(t, db.Omit("Author").Create(post).Error)
	return post
}

func newSQLite(t *testing.T) *gorm.DB {
	return testutil.NewSQLiteDB(t)
}
