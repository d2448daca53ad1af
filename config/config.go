package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Exchange
	BaseURL       string
	QuoteSuffix   string
	HTTPTimeoutMS int

	// Indicator spans
	EMAFast int
	EMAMid  int
	EMASlow int
	MATrend int

	// Scan shape
	ScanTimeframes string // comma-separated, e.g. "5m,15m,30m,1h,4h"
	TopByVolume    int
	Workers        int
	KlineLimit     int
	ScanStrategy   string // "all" or "first"

	// Classifier policy
	SupportBufferPct float64
	BatteryRef       string // "current" or "previous"
	SupportWindow    string // "exclusive" or "inclusive" of the current candle

	// Service
	ListenAddr   string
	ScanInterval string // cron spec; empty disables background scans
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		BaseURL:       getEnv("BASE_URL", "https://open-api.bingx.com"),
		QuoteSuffix:   getEnv("QUOTE_SUFFIX", "-USDT"),
		HTTPTimeoutMS: getEnvInt("HTTP_TIMEOUT_MS", 5000),

		EMAFast: getEnvInt("EMA_FAST", 9),
		EMAMid:  getEnvInt("EMA_MID", 21),
		EMASlow: getEnvInt("EMA_SLOW", 50),
		MATrend: getEnvInt("MA_TREND", 200),

		ScanTimeframes: getEnv("SCAN_TIMEFRAMES", "5m,15m,30m,1h,4h"),
		TopByVolume:    getEnvInt("TOP_BY_VOLUME", 250),
		Workers:        getEnvInt("WORKERS", 60),
		KlineLimit:     getEnvInt("KLINE_LIMIT", 250),
		ScanStrategy:   getEnv("SCAN_STRATEGY", "all"),

		SupportBufferPct: getEnvFloat("SUPPORT_BUFFER_PCT", 1.2),
		BatteryRef:       getEnv("BATTERY_REF", "current"),
		SupportWindow:    getEnv("SUPPORT_WINDOW", "exclusive"),

		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		ScanInterval: getEnv("SCAN_INTERVAL", ""),
	}
}

// ParseTimeframes splits the SCAN_TIMEFRAMES list, dropping blanks.
func (c *Config) ParseTimeframes() []string {
	parts := strings.Split(c.ScanTimeframes, ",")
	tfs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tfs = append(tfs, p)
	}
	return tfs
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return f
}
