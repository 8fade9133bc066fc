package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/anonto42/echoo/backend/internal/feed"
	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	registry *feed.Registry
	profiles feed.ProfileLookup
	logger   *zap.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(registry *feed.Registry, profiles feed.ProfileLookup, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		registry: registry,
		profiles: profiles,
		logger:   logger,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feeds", h.GetFeeds)
	g.GET("/feeds/status", h.GetStatus)
	g.GET("/feeds/:kind", h.GetFeed)
}

// FeedResponse is one feed in a response. Error is set instead of posts when
// the feed could not be read.
type FeedResponse struct {
	Posts   []models.Post `json:"posts"`
	Skipped int           `json:"skipped"`
	Error   string        `json:"error,omitempty"`
}

// FeedsResponse is the body of an aggregate refresh.
type FeedsResponse struct {
	Recent       FeedResponse `json:"recent"`
	Popular      FeedResponse `json:"popular"`
	ForYou       FeedResponse `json:"for_you"`
	Loading      bool         `json:"loading"`
	Generation   uint64       `json:"generation"`
	RefreshedAt  time.Time    `json:"refreshed_at"`
	ProfileError string       `json:"profile_error,omitempty"`
}

func toFeedResponse(r feed.FeedResult) FeedResponse {
	if !r.OK() {
		return FeedResponse{Posts: []models.Post{}, Error: r.Err.Error()}
	}
	posts := r.Posts
	if posts == nil {
		posts = []models.Post{}
	}
	return FeedResponse{Posts: posts, Skipped: r.Skipped}
}

// GetFeeds refreshes the recent, popular and for-you feeds of the
// authenticated user together. It fails only when every feed failed.
func (h *FeedHandler) GetFeeds(c echo.Context) error {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var profileErr string
	viewer, err := feed.ResolveViewer(ctx, h.profiles, uid)
	if err != nil {
		h.logger.Warn("Targeting without viewer profile", zap.String("uid", uid), zap.Error(err))
		profileErr = err.Error()
	}

	agg := h.registry.For(uid)
	snap, err := agg.Refresh(ctx, viewer)
	switch {
	case errors.Is(err, feed.ErrSuperseded):
		return echo.NewHTTPError(http.StatusConflict, "Refresh superseded by a newer request")
	case err != nil:
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Feed refresh abandoned")
	}

	if snap.AllFailed() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Feeds are temporarily unavailable")
	}

	return c.JSON(http.StatusOK, FeedsResponse{
		Recent:       toFeedResponse(snap.Recent),
		Popular:      toFeedResponse(snap.Popular),
		ForYou:       toFeedResponse(snap.ForYou),
		Loading:      agg.Loading(),
		Generation:   snap.Generation,
		RefreshedAt:  snap.RefreshedAt,
		ProfileError: profileErr,
	})
}

// GetStatus reports whether a refresh of the authenticated user is in flight
// and when their last one was applied.
func (h *FeedHandler) GetStatus(c echo.Context) error {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	agg := h.registry.For(uid)
	status := echo.Map{"loading": agg.Loading()}
	if snap := agg.Latest(); snap != nil {
		status["generation"] = snap.Generation
		status["refreshed_at"] = snap.RefreshedAt
	}
	return c.JSON(http.StatusOK, status)
}

// GetFeed builds a single feed without touching the aggregate state.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	uid, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	kind, err := feed.ParseKind(c.Param("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var viewer feed.Viewer
	if kind == feed.KindForYou {
		if viewer, err = feed.ResolveViewer(ctx, h.profiles, uid); err != nil {
			h.logger.Warn("Targeting without viewer profile", zap.String("uid", uid), zap.Error(err))
		}
	}

	res, err := h.registry.Builder().Build(ctx, kind, viewer)
	if err != nil {
		h.logger.Warn("Feed read failed", zap.String("feed", string(kind)), zap.Error(err))
		if errors.Is(err, feed.ErrRepositoryUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Feed is temporarily unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, toFeedResponse(feed.FeedResult{Kind: kind, Posts: res.Posts, Skipped: res.Skipped}))
}
