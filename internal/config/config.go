package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseURL          string
	RedisURL             string
	NATSURL              string
	JWTSecret            string
	SessionTTL           time.Duration
	ChangelogRecentLimit int
	LoginRateLimit       int
	LoginRateWindow      time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RISKBOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "RiskBoard API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("changelog.recent_limit", 4)
	v.SetDefault("login.rate_limit", 10)
	v.SetDefault("login.rate_window", "1m")

	ttl, err := time.ParseDuration(v.GetString("session.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid session ttl: %w", err)
	}

	rateWindow, err := time.ParseDuration(v.GetString("login.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid login rate window: %w", err)
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		NATSURL:              v.GetString("nats.url"),
		JWTSecret:            v.GetString("jwt.secret"),
		SessionTTL:           ttl,
		ChangelogRecentLimit: v.GetInt("changelog.recent_limit"),
		LoginRateLimit:       v.GetInt("login.rate_limit"),
		LoginRateWindow:      rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ChangelogRecentLimit <= 0 {
		cfg.ChangelogRecentLimit = 4
	}

	return cfg, nil
}
