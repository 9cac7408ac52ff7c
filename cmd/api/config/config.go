package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DailyGlobalLimit  int
	HourlyGlobalLimit int
	DailyUserLimit    int
	AlertThreshold    float64

	UsageCacheTTL     time.Duration
	RateSweepInterval time.Duration
	RetentionWindow   time.Duration
	RetentionInterval time.Duration

	ExternalHTTPTimeout time.Duration
	DownloadTimeout     time.Duration
}

func NewConfig() *Config {
	return &Config{
		DailyGlobalLimit:  getEnvInt("DAILY_GLOBAL_LIMIT", 500),
		HourlyGlobalLimit: getEnvInt("HOURLY_GLOBAL_LIMIT", 100),
		DailyUserLimit:    getEnvInt("DAILY_USER_LIMIT", 50),
		AlertThreshold:    0.8,

		UsageCacheTTL:     5 * time.Second,
		RateSweepInterval: 5 * time.Minute,
		RetentionWindow:   7 * 24 * time.Hour,
		RetentionInterval: time.Hour,

		ExternalHTTPTimeout: 10 * time.Second,
		DownloadTimeout:     60 * time.Second,
	}
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
