package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anonto42/echoo/backend/internal/feed"
	"github.com/anonto42/echoo/backend/internal/handlers"
	"github.com/anonto42/echoo/backend/internal/middleware"
	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/anonto42/echoo/backend/internal/repositories"
	"github.com/anonto42/echoo/backend/pkg/config"
	"github.com/anonto42/echoo/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	limiterIdleTTL    = 10 * time.Minute
	aggregatorIdleTTL = 30 * time.Minute
)

// Dependencies are the initialized stores and clients the routes are built on.
type Dependencies struct {
	Config   *config.Config
	Postgres *gorm.DB
	Posts    repositories.PostRepository
	// Firebase is nil unless a Firebase app was initialized.
	Firebase middleware.TokenVerifier
	Logger   *zap.Logger
}

// NewPostRepository returns the post store selected by cfg.PostStore.
func NewPostRepository(cfg *config.Config, db *config.DB, fb *firebase.App) (repositories.PostRepository, error) {
	switch cfg.PostStore {
	case config.PostStoreMongo:
		if db == nil || db.Mongo == nil {
			return nil, fmt.Errorf("mongo post store selected but MongoDB is not connected")
		}
		return repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase)), nil
	case config.PostStoreFirestore:
		if fb == nil || fb.Firestore == nil {
			return nil, fmt.Errorf("firestore post store selected but Firestore is not initialized")
		}
		return repositories.NewFirestorePostRepository(fb.Firestore), nil
	case config.PostStoreMemory:
		return repositories.NewMemoryPostRepository(), nil
	}
	return nil, fmt.Errorf("unknown post store %q", cfg.PostStore)
}

// SetupRoutes migrates the relational models and registers all application
// routes. Background work started here stops when ctx is done.
func SetupRoutes(ctx context.Context, e *echo.Echo, deps Dependencies) error {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := deps.Config

	if err := deps.Postgres.AutoMigrate(&models.User{}, &models.Like{}); err != nil {
		return fmt.Errorf("auto migrate models: %w", err)
	}
	log.Info("Relational auto-migrations completed")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "echoo api"})
	})

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(deps.Postgres)
	postRepo := deps.Posts

	builder := feed.NewBuilder(postRepo, cfg.FeedTimeout, log.Named("feed"))
	registry := feed.NewRegistry(builder, log.Named("feed"))
	go sweep(ctx, time.Minute, func() { registry.Cleanup(aggregatorIdleTTL) })

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, deps.Firebase, cfg.JWTSecret, log)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	if cfg.AuthMode == config.AuthModeFirebase {
		if deps.Firebase == nil {
			return fmt.Errorf("firebase auth selected but Firebase is not initialized")
		}
		api.Use(middleware.FirebaseAuthMiddleware(deps.Firebase))
	} else {
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	}
	log.Info("Authentication middleware applied", zap.String("mode", cfg.AuthMode))

	userHandler := handlers.NewUserHandler(userRepo, likeRepo, postRepo, registry, log)
	userHandler.RegisterProfileRoutes(api)

	var createLimits []echo.MiddlewareFunc
	if cfg.PostRateLimit > 0 {
		limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.PostRateLimit), cfg.PostRateBurst)
		go sweep(ctx, time.Minute, func() { limiter.Cleanup(limiterIdleTTL) })
		createLimits = append(createLimits, middleware.RateLimitMiddleware(limiter))
	}
	postHandler := handlers.NewPostHandler(postRepo, userRepo, builder, log)
	postHandler.RegisterPostRoutes(api, createLimits...)

	likeHandler := handlers.NewLikeHandler(likeRepo, postRepo, log)
	likeHandler.RegisterLikeRoutes(api)

	feedHandler := handlers.NewFeedHandler(registry, userRepo, log)
	feedHandler.RegisterFeedRoutes(api)

	log.Info("All routes configured", zap.String("post_store", cfg.PostStore))
	return nil
}

// sweep runs fn every interval until ctx is done.
func sweep(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
