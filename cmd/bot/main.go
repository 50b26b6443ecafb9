package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"levelquiz/internal/app"
	"levelquiz/internal/bot"
	"levelquiz/internal/config"
)

func main() {
	cfg := config.Load()
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Failed to connect to Telegram: %v", err)
	}
	api.Debug = cfg.Debug
	log.Printf("Authorized as @%s", api.Self.UserName)
	if len(cfg.TelegramAdminIDs) == 0 {
		log.Println("Warning: TELEGRAM_ADMIN_IDS is empty, /admin is disabled")
	}

	b := bot.New(api, bot.Deps{
		Auth:       a.Auth,
		Assessment: a.Assessment,
		Results:    a.Results,
		Admin:      a.Admin,
		Bans:       a.Moderation,
		IsAdmin:    cfg.IsTelegramAdmin,
	})

	go a.CleanupSessions(ctx, time.Hour)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		log.Println("Bot shutting down...")
		api.StopReceivingUpdates()
	}()

	b.Run(ctx, updates)
}
