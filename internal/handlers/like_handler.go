package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/anonto42/echoo/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository // To update like counts in posts
	logger         *zap.Logger
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, postRepo repositories.PostRepository, logger *zap.Logger) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		postRepository: postRepo,
		logger:         logger,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/likes", h.LikePost)
	g.DELETE("/posts/:id/likes", h.UnlikePost)
	g.GET("/posts/:id/likes/status", h.GetUserLikeStatusForPost)
}

// LikePost handles liking a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	postID := c.Param("id")

	if _, err := h.postRepository.GetPostByID(ctx, postID); err != nil {
		return postError(err)
	}

	like := &models.Like{PostID: postID, UserUID: uid}
	if err := h.likeRepository.CreateLike(ctx, like); err != nil {
		if errors.Is(err, repositories.ErrAlreadyLiked) {
			return echo.NewHTTPError(http.StatusConflict, "Post already liked by this user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.IncrementLikesCount(ctx, postID); err != nil {
		h.logger.Error("Failed to increment like count", zap.String("post_id", postID), zap.Error(err))
		if rbErr := h.likeRepository.DeleteLike(ctx, postID, uid); rbErr != nil {
			h.logger.Error("Failed to roll back like", zap.String("post_id", postID), zap.Error(rbErr))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to like post")
	}

	return c.JSON(http.StatusCreated, like)
}

// UnlikePost handles unliking a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	postID := c.Param("id")

	if err := h.likeRepository.DeleteLike(ctx, postID, uid); err != nil {
		if errors.Is(err, repositories.ErrLikeNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Like not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.postRepository.DecrementLikesCount(ctx, postID); err != nil {
		h.logger.Warn("Failed to decrement like count", zap.String("post_id", postID), zap.Error(err))
	}

	return c.NoContent(http.StatusNoContent)
}

// GetUserLikeStatusForPost checks if the authenticated user has liked a specific post
func (h *LikeHandler) GetUserLikeStatusForPost(c echo.Context) error {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

	hasLiked, err := h.likeRepository.HasUserLikedPost(c.Request().Context(), postID, uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "has_liked": hasLiked})
}
