package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	// Session state store. Empty RedisURL keeps sessions in process memory.
	// SessionTTL reclaims sessions idle that long; it never times a quiz.
	RedisURL   string
	SessionTTL time.Duration

	JWTSecret     string
	TokenDuration time.Duration

	InitialLives  int
	TimeZone      *time.Location
	SeedQuestions bool

	CORSOrigins []string

	TelegramToken    string
	TelegramAdminIDs []int64

	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
	Debug        bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	return &Config{
		ServerPort:   getEnv("PORT", "8080"),
		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./levelquiz.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		RedisURL:   getEnv("REDIS_URL", ""),
		SessionTTL: getDuration("SESSION_TTL", 7*24*time.Hour),

		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production"),
		TokenDuration: getDuration("TOKEN_DURATION", 7*24*time.Hour),

		InitialLives:  getInt("INITIAL_LIVES", 3),
		TimeZone:      getLocation("QUIZ_TIMEZONE"),
		SeedQuestions: getBool("SEED_QUESTIONS", true),

		CORSOrigins: getList("CORS_ORIGINS", []string{"*"}),

		TelegramToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminIDs: getIDList("TELEGRAM_ADMIN_IDS"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Level Quiz"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),
		Debug:        getBool("DEBUG", false),
	}
}

// GoogleEnabled reports whether Google sign-in is configured
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// IsTelegramAdmin reports whether the chat user may use admin commands
func (c *Config) IsTelegramAdmin(id int64) bool {
	for _, adminID := range c.TelegramAdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getIDList(key string) []int64 {
	var ids []int64
	for _, part := range getList(key, nil) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Ignoring invalid id %q in %s", part, key)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// getLocation resolves an IANA zone name; calendar-day bonuses are counted in it
func getLocation(key string) *time.Location {
	name := getEnv(key, "UTC")
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Unknown time zone %q in %s, using UTC", name, key)
		return time.UTC
	}
	return loc
}
