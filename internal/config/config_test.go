package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Numeric keys set to "" fall back to their defaults; the string
	// keys get their documented defaults restated so a polluted test
	// environment cannot skew the assertions.
	for _, key := range []string{
		"MAX_RECONNECT_ATTEMPTS", "RECONNECT_INTERVAL_MS", "TYPING_DELAY_MS",
		"WARNING_THRESHOLD_MS", "TERMINATION_THRESHOLD_MS", "SWEEP_INTERVAL_MS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("PORT", "10000")
	t.Setenv("DB_PATH", "file:bot.db?_foreign_keys=on")
	t.Setenv("QR_PATH", "public/qrcode.png")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "10000", cfg.Port)
	require.Equal(t, 5, cfg.Connect.MaxAttempts)
	require.Equal(t, 15*time.Second, cfg.Connect.Interval)
	require.Equal(t, 1500*time.Millisecond, cfg.TypingDelay)
	require.Equal(t, 5*time.Minute, cfg.Session.WarningThreshold)
	require.Equal(t, 10*time.Minute, cfg.Session.TerminationThreshold)
	require.Equal(t, time.Minute, cfg.Session.SweepInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_RECONNECT_ATTEMPTS", "3")
	t.Setenv("RECONNECT_INTERVAL_MS", "10000")
	t.Setenv("TYPING_DELAY_MS", "2000")
	t.Setenv("WARNING_THRESHOLD_MS", "60000")
	t.Setenv("TERMINATION_THRESHOLD_MS", "120000")
	t.Setenv("SWEEP_INTERVAL_MS", "5000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 3, cfg.Connect.MaxAttempts)
	require.Equal(t, 10*time.Second, cfg.Connect.Interval)
	require.Equal(t, 2*time.Second, cfg.TypingDelay)
	require.Equal(t, time.Minute, cfg.Session.WarningThreshold)
	require.Equal(t, 2*time.Minute, cfg.Session.TerminationThreshold)
	require.Equal(t, 5*time.Second, cfg.Session.SweepInterval)
}

func TestMalformedIntFallsBack(t *testing.T) {
	t.Setenv("MAX_RECONNECT_ATTEMPTS", "many")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Connect.MaxAttempts)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:        "10000",
			DBPath:      "file:bot.db",
			QRPath:      "public/qrcode.png",
			Connect:     ConnectConfig{MaxAttempts: 5, Interval: 15 * time.Second},
			TypingDelay: time.Second,
			Session: SessionConfig{
				WarningThreshold:     5 * time.Minute,
				TerminationThreshold: 10 * time.Minute,
				SweepInterval:        time.Minute,
			},
		}
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.Port = ""
	require.Error(t, c.Validate())

	c = valid()
	c.Connect.Interval = 0
	require.Error(t, c.Validate())

	c = valid()
	c.Session.TerminationThreshold = c.Session.WarningThreshold
	require.Error(t, c.Validate())

	c = valid()
	c.TypingDelay = -time.Second
	require.Error(t, c.Validate())
}
