package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/echoo/backend/internal/middleware"
	"github.com/anonto42/echoo/backend/internal/router"
	"github.com/anonto42/echoo/backend/pkg/config"
	"github.com/anonto42/echoo/backend/pkg/firebase"
	"github.com/anonto42/echoo/backend/pkg/logger"
	"github.com/anonto42/echoo/backend/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	// Initialize database connections
	db, err := config.InitDB(cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Firebase
	var fbApp *firebase.App
	var verifier middleware.TokenVerifier
	if cfg.NeedsFirebase() {
		fbApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.PostStore == config.PostStoreFirestore, zl)
		if err != nil {
			zl.Fatal("Failed to initialize Firebase", zap.Error(err))
		}
		defer func() {
			if err := fbApp.Close(); err != nil {
				zl.Error("Error closing Firestore client", zap.Error(err))
			}
		}()
		verifier = fbApp.AuthClient
	}

	posts, err := router.NewPostRepository(cfg, db, fbApp)
	if err != nil {
		zl.Fatal("Failed to select post store", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, zl)

	// Setup routes and dependencies
	if err := router.SetupRoutes(ctx, e, router.Dependencies{
		Config:   cfg,
		Postgres: db.Postgres,
		Posts:    posts,
		Firebase: verifier,
		Logger:   zl,
	}); err != nil {
		zl.Fatal("Failed to set up routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: e,
	}

	go func() {
		zl.Info("Server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("listen", zap.Error(err))
		}
	}()

	// Block until a signal is received
	<-ctx.Done()
	zl.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}

	zl.Info("Server exiting")
}
