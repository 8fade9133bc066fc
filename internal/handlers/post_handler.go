package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/echoo/backend/internal/feed"
	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/anonto42/echoo/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository // author display name at creation
	builder        *feed.Builder
	logger         *zap.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, builder *feed.Builder, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		builder:        builder,
		logger:         logger,
	}
}

// RegisterPostRoutes registers post-related routes; extra middleware applies to creation only
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, createMiddleware ...echo.MiddlewareFunc) {
	g.POST("/posts", h.CreatePost, createMiddleware...)
	g.GET("/posts/mine", h.GetMyPosts)
	g.GET("/posts/:id", h.GetPost)
}

// CreatePost creates a new post, optionally targeted by age range and gender
func (h *PostHandler) CreatePost(c echo.Context) error {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.TargetMinAge != nil && req.TargetMaxAge != nil && *req.TargetMinAge > *req.TargetMaxAge {
		return echo.NewHTTPError(http.StatusBadRequest, "target_min_age must not exceed target_max_age")
	}

	author, err := h.userRepository.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return profileError(err)
	}

	post := &models.Post{
		AuthorID:          uid,
		AuthorDisplayName: author.Name,
		Body:              strings.TrimSpace(req.Body),
		TargetMinAge:      req.TargetMinAge,
		TargetMaxAge:      req.TargetMaxAge,
	}
	// "all" is the same as no gender restriction and is stored as absent
	if req.TargetGender != nil && models.Gender(*req.TargetGender) != models.GenderAll {
		g := models.Gender(*req.TargetGender)
		post.TargetGender = &g
	}

	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		h.logger.Error("Failed to create post", zap.String("uid", uid), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create post")
	}

	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return postError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// GetMyPosts lists the authenticated user's newest posts
func (h *PostHandler) GetMyPosts(c echo.Context) error {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	res, err := h.builder.AuthorPosts(c.Request().Context(), uid)
	if err != nil {
		h.logger.Warn("Failed to fetch author posts", zap.String("uid", uid), zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Posts are temporarily unavailable")
	}

	return c.JSON(http.StatusOK, echo.Map{"posts": res.Posts, "skipped": res.Skipped})
}

func postError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrInvalidPostID):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	case errors.Is(err, repositories.ErrPostNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
