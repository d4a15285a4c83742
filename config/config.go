package config

import (
	"os"
	"strconv"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port       string
	MongoURI   string
	PlatformDB string
	RedisAddr  string
	JWTSecret  string
	CORSOrigin string
	LogLevel   string
	LogPretty  bool

	DefaultSlotDuration  int // minutes
	BookingAdvanceDays   int
	NoShowTimeoutMinutes int
	WorkingHoursStart    string // "09:00"
	WorkingHoursEnd      string // "18:00"
}

func Load() *Config {
	return &Config{
		Port:       getenv("PORT", "5001"),
		MongoURI:   getenv("MONGO_URI", "mongodb://localhost:27017"),
		PlatformDB: getenv("PLATFORM_DB", "trimly_platform"),
		RedisAddr:  getenv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:  getenv("JWT_SECRET", "change-me-in-production"),
		CORSOrigin: getenv("CORS_ORIGIN", "*"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogPretty:  getenv("LOG_PRETTY", "") != "",

		DefaultSlotDuration:  getint("DEFAULT_SLOT_DURATION_MINUTES", 30),
		BookingAdvanceDays:   getint("BOOKING_ADVANCE_DAYS", 7),
		NoShowTimeoutMinutes: getint("NO_SHOW_TIMEOUT_MINUTES", 5),
		WorkingHoursStart:    getenv("DEFAULT_WORKING_HOURS_START", "09:00"),
		WorkingHoursEnd:      getenv("DEFAULT_WORKING_HOURS_END", "18:00"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
