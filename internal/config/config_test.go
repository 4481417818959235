package config

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestLoadDefaults(t *testing.T) {
	unset(t, "PORT", "APP_ENV", "LOG_LEVEL", "SESSION_SECRET", "SESSION_TTL", "FORECAST_DAYS", "GEO_DB")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "5175" {
		t.Errorf("Port = %q, want 5175", cfg.Port)
	}
	if cfg.SessionTTL != 14*24*time.Hour {
		t.Errorf("SessionTTL = %v, want 336h", cfg.SessionTTL)
	}
	if cfg.ForecastDays != 7 {
		t.Errorf("ForecastDays = %d, want 7", cfg.ForecastDays)
	}
	if cfg.GeoDB != "" {
		t.Errorf("GeoDB = %q, want empty", cfg.GeoDB)
	}
	if cfg.Production() {
		t.Errorf("Production() = true for default APP_ENV")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("SESSION_IDLE", "30m")
	t.Setenv("FORECAST_DAYS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.SessionIdle != 30*time.Minute || cfg.ForecastDays != 3 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.Production() {
		t.Errorf("Production() = false for APP_ENV=Production")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, key, val string
	}{
		{"forecast days too large", "FORECAST_DAYS", "30"},
		{"forecast days zero", "FORECAST_DAYS", "0"},
		{"bad log level", "LOG_LEVEL", "loud"},
		{"bad duration", "SESSION_TTL", "fortnight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("Load with %s=%q: want error", tt.key, tt.val)
			}
		})
	}
}

func TestDeriveKey(t *testing.T) {
	a := &Config{SessionSecret: "s3cret"}
	b := &Config{SessionSecret: "other"}

	k1 := a.DeriveKey(PurposeSessionToken)
	k2 := a.DeriveKey(PurposeSessionToken)
	k3 := a.DeriveKey(PurposeDailySalt)
	k4 := b.DeriveKey(PurposeSessionToken)

	if len(k1) != 32 {
		t.Fatalf("len = %d, want 32", len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Errorf("same purpose produced different keys")
	}
	if bytes.Equal(k1, k3) {
		t.Errorf("different purposes produced the same key")
	}
	if bytes.Equal(k1, k4) {
		t.Errorf("different secrets produced the same key")
	}
}

func TestConfigureLogging(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	(&Config{LogLevel: "warn", LogFormat: "json"}).ConfigureLogging(&buf)
	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, `"k":"v"`) || !strings.Contains(out, `"message":"shown"`) {
		t.Errorf("json line missing fields: %s", out)
	}
}

// unset removes keys for the duration of the test; t.Setenv restores them.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}
