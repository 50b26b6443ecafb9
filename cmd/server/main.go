package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"levelquiz/internal/app"
	"levelquiz/internal/config"
	"levelquiz/internal/handlers"
	"levelquiz/internal/security"
)

func main() {
	// Load configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database, session store and services
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	var google *handlers.GoogleOAuth
	if cfg.GoogleEnabled() {
		google = handlers.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.OAuthRedirectBaseURL, security.NewStateSigner(cfg.JWTSecret))
		log.Println("Google sign-in enabled")
	}

	// Login and registration attempts per client IP
	limiter := security.NewRateLimiter(10, time.Minute)
	defer limiter.Stop()

	// Initialize handlers
	handler := handlers.NewRouter(handlers.RouterDeps{
		Middleware:   handlers.NewMiddleware(a.Auth, limiter),
		Auth:         handlers.NewAuthHandler(a.Auth, a.Assessment, google),
		Quiz:         handlers.NewQuizHandler(a.Assessment, a.Results, a.Admin, cfg.Debug),
		Admin:        handlers.NewAdminHandler(a.Admin, a.Backup),
		CORSOrigins:  cfg.CORSOrigins,
		RequestLimit: 30 * time.Second,
	})

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go a.CleanupSessions(ctx, time.Hour)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
