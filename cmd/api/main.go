package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fannysbth/kel1paw/internal/auth"
	"github.com/Fannysbth/kel1paw/internal/cache"
	"github.com/Fannysbth/kel1paw/internal/config"
	"github.com/Fannysbth/kel1paw/internal/database"
	"github.com/Fannysbth/kel1paw/internal/email"
	"github.com/Fannysbth/kel1paw/internal/handlers"
	"github.com/Fannysbth/kel1paw/internal/logger"
	"github.com/Fannysbth/kel1paw/internal/middleware"
	"github.com/Fannysbth/kel1paw/internal/repository"
	"github.com/Fannysbth/kel1paw/internal/service"
	"github.com/Fannysbth/kel1paw/internal/storage"
)

// @title Capstone Continuation API
// @version 1.0
// @description Backend API matching capstone project owners with groups that want to continue their work

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:5000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize the authoritative store
	db, err := database.New(&cfg.Mongo)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx); err != nil {
		cancelIndexes()
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}
	cancelIndexes()
	slog.Info("Database indexes ensured")

	// Initialize the cache
	cacheStore, err := cache.NewStore(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to cache", "error", err)
		os.Exit(1)
	}
	defer func(cacheStore *cache.Store) {
		if err := cacheStore.Close(); err != nil {
			slog.Error("Failed to close cache connection", "error", err)
		}
	}(cacheStore)

	slog.Info("Cache connection established")

	invalidator := cache.NewInvalidator(cacheStore)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	emailService := email.NewService(&cfg.Email)
	driveClient := storage.NewDriveClient(&cfg.Drive)

	authSvc := service.NewAuthService(userRepo, authService)
	userSvc := service.NewUserService(userRepo, cacheStore, invalidator, cfg.Cache)
	projectSvc := service.NewProjectService(projectRepo, commentRepo, ratingRepo, requestRepo, driveClient, cacheStore, invalidator, cfg.Cache)
	commentSvc := service.NewCommentService(commentRepo, projectRepo, cacheStore, invalidator, cfg.Cache)
	ratingSvc := service.NewRatingService(ratingRepo, projectRepo, cacheStore, invalidator, cfg.Cache)
	requestSvc := service.NewRequestService(requestRepo, projectRepo, userRepo, emailService, cacheStore, invalidator, cfg.Cache)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	userHandler := handlers.NewUserHandler(userSvc)
	projectHandler := handlers.NewProjectHandler(projectSvc)
	commentHandler := handlers.NewCommentHandler(commentSvc)
	ratingHandler := handlers.NewRatingHandler(ratingSvc)
	requestHandler := handlers.NewRequestHandler(requestSvc)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)

	mux := http.NewServeMux()

	// Auth routes
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("GET /api/v1/auth/me", authMw.Authenticate(http.HandlerFunc(authHandler.Me)))

	// User routes
	mux.HandleFunc("GET /api/v1/users/{id}", userHandler.Get)
	mux.Handle("PUT /api/v1/users/{id}", authMw.Authenticate(http.HandlerFunc(userHandler.Update)))
	mux.Handle("DELETE /api/v1/users/{id}", authMw.Authenticate(http.HandlerFunc(userHandler.Delete)))

	// Project routes; detail uses optional auth so the proposal reference can
	// be included for the owner or an approved requester
	mux.HandleFunc("GET /api/v1/projects", projectHandler.List)
	mux.Handle("GET /api/v1/projects/my", authMw.Authenticate(http.HandlerFunc(projectHandler.My)))
	mux.Handle("GET /api/v1/projects/{id}", authMw.OptionalAuth(http.HandlerFunc(projectHandler.Get)))
	mux.Handle("POST /api/v1/projects", authMw.Authenticate(http.HandlerFunc(projectHandler.Create)))
	mux.Handle("PUT /api/v1/projects/{id}", authMw.Authenticate(http.HandlerFunc(projectHandler.Update)))
	mux.Handle("DELETE /api/v1/projects/{id}", authMw.Authenticate(http.HandlerFunc(projectHandler.Delete)))
	mux.Handle("POST /api/v1/projects/{id}/proposal", authMw.Authenticate(http.HandlerFunc(projectHandler.UploadProposal)))
	mux.Handle("GET /api/v1/projects/{id}/proposal", authMw.Authenticate(http.HandlerFunc(projectHandler.GetProposal)))

	// Comment routes
	mux.HandleFunc("GET /api/v1/projects/{id}/comments", commentHandler.ListByProject)
	mux.Handle("POST /api/v1/projects/{id}/comments", authMw.Authenticate(http.HandlerFunc(commentHandler.Create)))
	mux.Handle("PUT /api/v1/comments/{id}", authMw.Authenticate(http.HandlerFunc(commentHandler.Update)))
	mux.Handle("DELETE /api/v1/comments/{id}", authMw.Authenticate(http.HandlerFunc(commentHandler.Delete)))

	// Rating routes
	mux.HandleFunc("GET /api/v1/projects/{id}/ratings", ratingHandler.ListByProject)
	mux.Handle("POST /api/v1/projects/{id}/ratings", authMw.Authenticate(http.HandlerFunc(ratingHandler.Rate)))
	mux.Handle("DELETE /api/v1/projects/{id}/ratings", authMw.Authenticate(http.HandlerFunc(ratingHandler.Remove)))

	// Request workflow routes
	mux.Handle("POST /api/v1/projects/{id}/requests", authMw.Authenticate(http.HandlerFunc(requestHandler.Create)))
	mux.Handle("GET /api/v1/projects/{id}/requests", authMw.Authenticate(http.HandlerFunc(requestHandler.ListByProject)))
	mux.Handle("GET /api/v1/requests/my", authMw.Authenticate(http.HandlerFunc(requestHandler.ListMine)))
	mux.Handle("PUT /api/v1/requests/{id}", authMw.Authenticate(http.HandlerFunc(requestHandler.UpdateMessage)))
	mux.Handle("POST /api/v1/requests/{id}/approve", authMw.Authenticate(http.HandlerFunc(requestHandler.Approve)))
	mux.Handle("POST /api/v1/requests/{id}/reject", authMw.Authenticate(http.HandlerFunc(requestHandler.Reject)))
	mux.Handle("DELETE /api/v1/requests/{id}", authMw.Authenticate(http.HandlerFunc(requestHandler.Cancel)))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, err := w.Write([]byte(`{"status":"unhealthy","database":"error"}`))
			if err != nil {
				slog.Error("Failed to write health check response", "error", err)
			}
			return
		}
		if err := cacheStore.HealthCheck(r.Context()); err != nil {
			// The cache degrades to misses; the service stays up.
			slog.Warn("Cache health check failed", "error", err)
		}
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`))
		if err != nil {
			slog.Error("Failed to write health check response", "error", err)
		}
	})

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		corsMw.Handler(mux),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
