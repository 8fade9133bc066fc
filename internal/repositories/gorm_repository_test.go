package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Like{}))
	return db
}

func TestUserRepository(t *testing.T) {
	repo := NewPostgresUserRepository(newTestDB(t))
	ctx := context.Background()

	age := 29
	female := models.GenderFemale
	require.NoError(t, repo.CreateUser(ctx, &models.User{UID: "u1", Name: "Ada", Email: models.OptionalEmail("ada@example.com"), Age: &age, Gender: &female}))

	got, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	require.NotNil(t, got.Age)
	assert.Equal(t, 29, *got.Age)
	require.NotNil(t, got.Gender)
	assert.Equal(t, models.GenderFemale, *got.Gender)

	byEmail, err := repo.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.UID)

	got.Age = nil
	got.Gender = nil
	require.NoError(t, repo.UpdateUser(ctx, got))
	got, err = repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got.Age)
	assert.Nil(t, got.Gender)

	_, err = repo.GetProfile(ctx, "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUsersWithoutEmail(t *testing.T) {
	repo := NewPostgresUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, &models.User{UID: "phone-1", Name: "Ada"}))
	require.NoError(t, repo.CreateUser(ctx, &models.User{UID: "anon-1"}))
	require.NoError(t, repo.CreateUser(ctx, &models.User{UID: "u1", Email: models.OptionalEmail("ada@example.com")}))
	assert.Error(t, repo.CreateUser(ctx, &models.User{UID: "u2", Email: models.OptionalEmail("ada@example.com")}))

	got, err := repo.GetProfile(ctx, "anon-1")
	require.NoError(t, err)
	assert.Nil(t, got.Email)
	assert.Empty(t, got.EmailAddress())
}

func TestDeleteUserRemovesLikes(t *testing.T) {
	db := newTestDB(t)
	users := NewPostgresUserRepository(db)
	likes := NewPostgresLikeRepository(db)
	ctx := context.Background()

	require.NoError(t, users.CreateUser(ctx, &models.User{UID: "u1", Name: "Ada", Email: models.OptionalEmail("ada@example.com")}))
	require.NoError(t, likes.CreateLike(ctx, &models.Like{PostID: "p1", UserUID: "u1"}))
	require.NoError(t, likes.CreateLike(ctx, &models.Like{PostID: "p2", UserUID: "u1"}))
	require.NoError(t, likes.CreateLike(ctx, &models.Like{PostID: "p1", UserUID: "u2"}))

	require.NoError(t, users.DeleteUser(ctx, "u1"))
	assert.True(t, errors.Is(users.DeleteUser(ctx, "u1"), gorm.ErrRecordNotFound))

	ids, err := likes.GetLikedPostIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
	liked, err := likes.HasUserLikedPost(ctx, "p1", "u2")
	require.NoError(t, err)
	assert.True(t, liked)

	// email and uid can be reused
	require.NoError(t, users.CreateUser(ctx, &models.User{UID: "u1", Name: "Ada", Email: models.OptionalEmail("ada@example.com")}))
}

func TestLikeRepository(t *testing.T) {
	repo := NewPostgresLikeRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.CreateLike(ctx, &models.Like{PostID: "p1", UserUID: "u1"}))
	assert.ErrorIs(t, repo.CreateLike(ctx, &models.Like{PostID: "p1", UserUID: "u1"}), ErrAlreadyLiked)
	require.NoError(t, repo.CreateLike(ctx, &models.Like{PostID: "p2", UserUID: "u1"}))

	ids, err := repo.GetLikedPostIDs(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)

	require.NoError(t, repo.DeleteLike(ctx, "p1", "u1"))
	assert.ErrorIs(t, repo.DeleteLike(ctx, "p1", "u1"), ErrLikeNotFound)

	liked, err := repo.HasUserLikedPost(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.False(t, liked)

	// a removed like can be given again
	require.NoError(t, repo.CreateLike(ctx, &models.Like{PostID: "p1", UserUID: "u1"}))
}
