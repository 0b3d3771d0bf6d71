package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kr-bhairav/Study-Optimizer/internal/config"
	"github.com/Kr-bhairav/Study-Optimizer/internal/database"
	"github.com/Kr-bhairav/Study-Optimizer/internal/handlers"
	"github.com/Kr-bhairav/Study-Optimizer/internal/middleware"
	"github.com/Kr-bhairav/Study-Optimizer/internal/repository"
	"github.com/Kr-bhairav/Study-Optimizer/internal/router"
	"github.com/Kr-bhairav/Study-Optimizer/internal/services"
)

func main() {
	log.Println("🚀 Starting Study Optimizer Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	authService := services.NewAuthService(userRepo, redisClient, jwtAuth, emailService)
	sessionService := services.NewSessionService(sessionRepo)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	sessionHandler := handlers.NewStudySessionHandler(sessionService)
	userHandler := handlers.NewUserHandler(userRepo)

	// ──── Step 5: Start Reminder Scheduler ────
	reminderScheduler := services.NewReminderScheduler(sessionRepo, emailService, cfg.ReminderCronSpec)
	if err := reminderScheduler.Start(); err != nil {
		log.Fatalf("✗ Reminder scheduler failed to start: %v", err)
	}
	log.Println("✓ Reminder scheduler started")

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		sessionHandler,
		userHandler,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		reminderScheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Study Optimizer Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
