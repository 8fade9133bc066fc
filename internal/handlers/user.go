package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/anonto42/echoo/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountObserver is told when an account disappears.
type AccountObserver interface {
	Forget(uid string)
}

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository
	observer       AccountObserver
	logger         *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	postRepo repositories.PostRepository,
	observer AccountObserver,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		userRepository: userRepo,
		likeRepository: likeRepo,
		postRepository: postRepo,
		observer:       observer,
		logger:         logger,
	}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)    // Get own profile
	g.PUT("/profile", h.UpdateProfile) // Update own profile
	g.DELETE("/profile", h.DeleteUser) // Delete own account
	g.GET("/users/:uid", h.GetUser)    // Get other user's profile by UID
}

func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.userRepository.GetProfile(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return profileError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	user, err := h.userRepository.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return profileError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile replaces the authenticated user's name, age and gender
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return profileError(err)
	}

	user.Name = req.Name
	user.Age = req.Age
	user.Gender = nil
	if req.Gender != nil {
		g := models.Gender(*req.Gender)
		user.Gender = &g
	}

	if err := h.userRepository.UpdateUser(c.Request().Context(), user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, user)
}

// DeleteUser deletes the authenticated user's account. Their likes are
// removed and the like counts of the liked posts are given back.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	likedPostIDs, err := h.likeRepository.GetLikedPostIDs(ctx, uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.userRepository.DeleteUser(ctx, uid); err != nil {
		return profileError(err)
	}

	for _, postID := range likedPostIDs {
		if err := h.postRepository.DecrementLikesCount(ctx, postID); err != nil {
			h.logger.Warn("Failed to release like of deleted account",
				zap.String("uid", uid), zap.String("post_id", postID), zap.Error(err))
		}
	}
	if h.observer != nil {
		h.observer.Forget(uid)
	}

	return c.NoContent(http.StatusNoContent)
}

func profileError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
