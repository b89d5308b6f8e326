package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application-level configuration.
type Config struct {
	// Provider credentials
	RingbaEmail    string
	RingbaPassword string

	// Notification
	SlackWebhookURL string

	// Storage; empty means snapshots are kept in memory only
	DatabaseURL string

	// Pipeline
	MaxRunAttempts int
	Headless       bool
	DownloadDir    string
	ScreenshotDir  string

	// Legacy alert threshold, shown on the status page only
	RPCThreshold float64

	// HTTP
	Port int

	// Reference timezone for time-slot classification and scheduling
	Location *time.Location
}

// Load reads configuration from the environment (and a .env file if one
// exists) or falls back to defaults. Credentials are required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("REPORT_TIMEZONE", "America/New_York"))
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	cfg := &Config{
		RingbaEmail:     os.Getenv("RINGBA_EMAIL"),
		RingbaPassword:  os.Getenv("RINGBA_PASSWORD"),
		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		MaxRunAttempts:  getEnvInt("MAX_RUN_ATTEMPTS", 4),
		Headless:        getEnv("HEADLESS", "true") != "false",
		DownloadDir:     getEnv("DOWNLOAD_DIR", "downloads"),
		ScreenshotDir:   getEnv("SCREENSHOT_DIR", "screenshots"),
		RPCThreshold:    getEnvFloat("RPC_THRESHOLD", 12.0),
		Port:            getEnvInt("PORT", 10000),
		Location:        loc,
	}

	if cfg.RingbaEmail == "" || cfg.RingbaPassword == "" {
		return nil, fmt.Errorf("RINGBA_EMAIL and RINGBA_PASSWORD are required")
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
