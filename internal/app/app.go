// Package app wires the database, the session store and the services shared
// by every binary.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"levelquiz/internal/config"
	"levelquiz/internal/database"
	"levelquiz/internal/repository"
	"levelquiz/internal/security"
	"levelquiz/internal/service"
	"levelquiz/internal/session"
)

// App holds the assembled services
type App struct {
	Config *config.Config
	DB     *database.DB

	Users      *repository.UserRepository
	Moderation *repository.ModerationRepository

	Sessions   session.Store
	Assessment *service.AssessmentService
	Auth       *service.AuthService
	Admin      *service.AdminService
	Results    *service.ResultService
	Backup     *service.BackupService
	Email      *service.EmailService

	closers []func() error
}

// New opens the database, applies migrations and seeds, picks the session
// store and builds the services
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a := &App{Config: cfg, DB: db, closers: []func() error{db.Close}}
	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Println("Migrations completed successfully")

	if cfg.SeedQuestions {
		if err := db.SeedQuestions(ctx); err != nil {
			log.Printf("Warning: Failed to seed questions: %v", err)
		}
	}

	if cfg.RedisURL != "" {
		client, err := session.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.Sessions = session.NewRedisStore(client, cfg.SessionTTL)
		log.Println("Quiz sessions stored in Redis")
	} else {
		a.Sessions = session.NewMemoryStore()
		log.Println("Quiz sessions stored in memory")
	}

	a.Users = repository.NewUserRepository(db)
	a.Moderation = repository.NewModerationRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	resultRepo := repository.NewResultRepository(db)
	hintRepo := repository.NewHintRepository(db)

	a.Email, err = service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, a.Users, cfg.Debug)
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := service.AssessmentDeps{
		Questions: questionRepo,
		Results:   resultRepo,
		Bans:      a.Moderation,
		Hints:     hintRepo,
		Sessions:  a.Sessions,
	}
	if a.Email.IsEnabled() {
		deps.Notifier = a.Email
	}
	a.Assessment = service.NewAssessmentService(deps, cfg.InitialLives, cfg.TimeZone)

	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.TokenDuration)
	a.Auth = service.NewAuthService(a.Users, tokens)
	a.Admin = service.NewAdminService(questionRepo, a.Moderation, a.Users, a.Assessment)
	a.Results = service.NewResultService(resultRepo)
	a.Backup = service.NewBackupService(db)
	return a, nil
}

// CleanupSessions periodically drops in-memory sessions idle for longer than
// the configured lifetime until ctx is done. Redis keys carry the same idle
// TTL and need no sweeping.
func (a *App) CleanupSessions(ctx context.Context, every time.Duration) {
	mem, ok := a.Sessions.(*session.MemoryStore)
	if !ok {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := mem.PurgeStale(now.Add(-a.Config.SessionTTL)); n > 0 {
				log.Printf("Expired %d abandoned quiz sessions", n)
			}
		}
	}
}

// Close releases the session store and the database
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
