// internal/config/config.go
//
// Typed environment configuration for the geoguess server.
// Responsibilities:
//   - Parse process environment (after godotenv has merged .env) into Config.
//   - Apply defaults (PORT 5175, CLIENT_ORIGIN, 14-day session tokens).
//   - Derive purpose-specific keys from SESSION_SECRET.
package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/hkdf"
)

// Config is the complete runtime configuration.
type Config struct {
	Port         string `env:"PORT" envDefault:"5175"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"json"`
	AppEnv       string `env:"APP_ENV" envDefault:"development"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	// Dataset sources. GEO_DB wins over the JSON files; with neither set the
	// embedded datasets are used.
	CountriesFile string `env:"COUNTRIES_FILE"`
	CitiesFile    string `env:"CITIES_FILE"`
	GeoDB         string `env:"GEO_DB"`

	SessionSecret string        `env:"SESSION_SECRET" envDefault:"dev_secret_change_me"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"336h"`
	SessionIdle   time.Duration `env:"SESSION_IDLE" envDefault:"6h"`

	ForecastURL     string        `env:"FORECAST_URL" envDefault:"https://api.open-meteo.com/v1/forecast"`
	ForecastTimeout time.Duration `env:"FORECAST_TIMEOUT" envDefault:"8s"`
	ForecastDays    int           `env:"FORECAST_DAYS" envDefault:"7"`

	SPADir string `env:"SPA_DIR"`
}

// Key purposes for DeriveKey.
const (
	PurposeSessionToken = "geoguess/session-token"
	PurposeDailySalt    = "geoguess/daily-salt"
)

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must not be empty")
	}
	if c.ForecastDays < 1 || c.ForecastDays > 16 {
		return fmt.Errorf("FORECAST_DAYS must be within 1..16, got %d", c.ForecastDays)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Production reports whether secure cookie attributes should be used.
func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Level returns the parsed log level (info when unparsable).
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// ConfigureLogging sets the global zerolog level and output.
// LOG_FORMAT=console selects the human-readable writer; anything else writes JSON lines.
func (c *Config) ConfigureLogging(w io.Writer) {
	zerolog.SetGlobalLevel(c.Level())
	if strings.EqualFold(c.LogFormat, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// DeriveKey returns a 32-byte key bound to purpose, derived from SESSION_SECRET
// with HKDF-SHA256. Distinct purposes yield independent keys.
func (c *Config) DeriveKey(purpose string) []byte {
	r := hkdf.New(sha256.New, []byte(c.SessionSecret), nil, []byte(purpose))
	key := make([]byte, 32)
	// hkdf only fails after 255*32 bytes.
	_, _ = io.ReadFull(r, key)
	return key
}
