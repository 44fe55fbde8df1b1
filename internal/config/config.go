// internal/config/config.go
//
// Runtime configuration, read from the environment once at startup.
// main loads `.env` (godotenv) before calling FromEnv, so either source works.
//
// Variables (defaults in parentheses):
//   PORT (5175)  LOG_LEVEL (info)  DB_PATH (./data/colorguess.db)
//   JWT_SECRET (dev_secret_change_me)  JWT_EXPIRES_DAYS (14)
//   COOKIE_NAME (colorguess_token)  CLIENT_ORIGIN (http://localhost:5173)
//   PALETTE_FILE (embedded)  REVEAL_DELAY (1s)  NEXT_ROUND_DELAY (1.5s)
//   SESSION_TTL (30m)  NODE_ENV

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           string
	LogLevel       string
	DBPath         string
	JWTSecret      string
	JWTTTL         time.Duration
	CookieName     string
	ClientOrigin   string
	PaletteFile    string
	RevealDelay    time.Duration
	NextRoundDelay time.Duration
	SessionTTL     time.Duration
	Production     bool
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Port:           getEnv("PORT", "5175"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DBPath:         getEnv("DB_PATH", "./data/colorguess.db"),
		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTTTL:         time.Duration(getEnvInt("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour,
		CookieName:     getEnv("COOKIE_NAME", "colorguess_token"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		PaletteFile:    os.Getenv("PALETTE_FILE"),
		RevealDelay:    getEnvDuration("REVEAL_DELAY", time.Second),
		NextRoundDelay: getEnvDuration("NEXT_ROUND_DELAY", 1500*time.Millisecond),
		SessionTTL:     getEnvDuration("SESSION_TTL", 30*time.Minute),
		Production:     os.Getenv("NODE_ENV") == "production",
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", k).Str("value", v).Msg("ignoring invalid integer")
		return def
	}
	return n
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("key", k).Str("value", v).Msg("ignoring invalid duration")
		return def
	}
	return d
}
