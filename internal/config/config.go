// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port    string
	DBPath  string
	QRPath  string
	Session SessionConfig
	Connect ConnectConfig

	// TypingDelay is the simulated "composing" pause before every
	// outbound message.
	TypingDelay time.Duration
}

// ConnectConfig bounds the reconnection policy.
type ConnectConfig struct {
	MaxAttempts int
	Interval    time.Duration
}

// SessionConfig controls idle-conversation handling.
type SessionConfig struct {
	WarningThreshold     time.Duration
	TerminationThreshold time.Duration
	SweepInterval        time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:   getEnv("PORT", "10000"),
		DBPath: getEnv("DB_PATH", "file:bot.db?_foreign_keys=on"),
		QRPath: getEnv("QR_PATH", "public/qrcode.png"),
		Connect: ConnectConfig{
			MaxAttempts: getEnvInt("MAX_RECONNECT_ATTEMPTS", 5),
			Interval:    getEnvMillis("RECONNECT_INTERVAL_MS", 15000),
		},
		Session: SessionConfig{
			WarningThreshold:     getEnvMillis("WARNING_THRESHOLD_MS", 300000),
			TerminationThreshold: getEnvMillis("TERMINATION_THRESHOLD_MS", 600000),
			SweepInterval:        getEnvMillis("SWEEP_INTERVAL_MS", 60000),
		},
		TypingDelay: getEnvMillis("TYPING_DELAY_MS", 1500),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all configuration fields are usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.QRPath == "" {
		return fmt.Errorf("QR_PATH cannot be empty")
	}
	if c.Connect.MaxAttempts < 0 {
		return fmt.Errorf("MAX_RECONNECT_ATTEMPTS must be >= 0")
	}
	if c.Connect.Interval <= 0 {
		return fmt.Errorf("RECONNECT_INTERVAL_MS must be > 0")
	}
	if c.Session.WarningThreshold <= 0 {
		return fmt.Errorf("WARNING_THRESHOLD_MS must be > 0")
	}
	if c.Session.TerminationThreshold <= c.Session.WarningThreshold {
		return fmt.Errorf("TERMINATION_THRESHOLD_MS must be greater than WARNING_THRESHOLD_MS")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_MS must be > 0")
	}
	if c.TypingDelay < 0 {
		return fmt.Errorf("TYPING_DELAY_MS must be >= 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Millisecond
}
