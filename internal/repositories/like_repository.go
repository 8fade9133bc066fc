package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/echoo/backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrLikeNotFound = errors.New("like not found")
	ErrAlreadyLiked = errors.New("post already liked by this user")
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, postID, userUID string) error
	HasUserLikedPost(ctx context.Context, postID, userUID string) (bool, error)
	GetLikedPostIDs(ctx context.Context, userUID string) ([]string, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike records a like, failing with ErrAlreadyLiked on a duplicate
func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	liked, err := r.HasUserLikedPost(ctx, like.PostID, like.UserUID)
	if err != nil {
		return err
	}
	if liked {
		return ErrAlreadyLiked
	}
	return r.db.WithContext(ctx).Create(like).Error
}

// DeleteLike hard-deletes a like so the same user can like the post again
func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, postID, userUID string) error {
	res := r.db.WithContext(ctx).Unscoped().Where("post_id = ? AND user_uid = ?", postID, userUID).Delete(&models.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLikeNotFound
	}
	return nil
}

// HasUserLikedPost checks if a user has liked a specific post
func (r *PostgresLikeRepository) HasUserLikedPost(ctx context.Context, postID, userUID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ? AND user_uid = ?", postID, userUID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikedPostIDs lists every post the user currently likes
func (r *PostgresLikeRepository) GetLikedPostIDs(ctx context.Context, userUID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("user_uid = ?", userUID).Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
