package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_TYPE", "REDIS_URL", "SESSION_TTL", "INITIAL_LIVES",
		"QUIZ_TIMEZONE", "SEED_QUESTIONS", "CORS_ORIGINS", "TELEGRAM_ADMIN_IDS", "GOOGLE_CLIENT_ID", "DEBUG"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.InitialLives)
	assert.Equal(t, time.UTC, cfg.TimeZone)
	assert.True(t, cfg.SeedQuestions)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.TelegramAdminIDs)
	assert.False(t, cfg.GoogleEnabled())
	assert.False(t, cfg.Debug)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://quiz@localhost/quiz")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("INITIAL_LIVES", "5")
	t.Setenv("QUIZ_TIMEZONE", "Asia/Tashkent")
	t.Setenv("SEED_QUESTIONS", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TELEGRAM_ADMIN_IDS", "11, x, 22")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg := Load()
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, "postgres://quiz@localhost/quiz", cfg.DatabaseURL)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.InitialLives)
	require.NotNil(t, cfg.TimeZone)
	assert.Equal(t, "Asia/Tashkent", cfg.TimeZone.String())
	assert.False(t, cfg.SeedQuestions)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, []int64{11, 22}, cfg.TelegramAdminIDs)
	assert.True(t, cfg.IsTelegramAdmin(22))
	assert.False(t, cfg.IsTelegramAdmin(33))
	assert.True(t, cfg.GoogleEnabled())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("INITIAL_LIVES", "many")
	t.Setenv("SEED_QUESTIONS", "perhaps")
	t.Setenv("QUIZ_TIMEZONE", "Mars/Olympus")

	cfg := Load()
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.InitialLives)
	assert.True(t, cfg.SeedQuestions)
	assert.Equal(t, time.UTC, cfg.TimeZone)
}
