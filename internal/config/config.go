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
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	NATSScanSubject   string
	JWTSecret         string
	LiveCountCacheTTL time.Duration
	LivePollInterval  time.Duration
	DuplicatePolicy   string
	MinimumPaid       float64
	ScanRateMax       int
	ScanRateWindow    time.Duration
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
	v.SetEnvPrefix("UNIBUS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "UniBus API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.scan_subject", "unibus.scans")
	v.SetDefault("livecount.cache_ttl", "5s")
	// Guidance for polling clients, surfaced through the health payload.
	v.SetDefault("live.poll_interval", "10s")
	v.SetDefault("duplicate.policy", "shift")
	v.SetDefault("subscription.minimum_paid", 500.0)
	v.SetDefault("scan.rate_max", 30)
	v.SetDefault("scan.rate_window", "1m")

	cacheTTL, err := parseDuration(v.GetString("livecount.cache_ttl"), "5s")
	if err != nil {
		return Config{}, fmt.Errorf("invalid live count cache ttl: %w", err)
	}

	pollInterval, err := parseDuration(v.GetString("live.poll_interval"), "10s")
	if err != nil {
		return Config{}, fmt.Errorf("invalid live poll interval: %w", err)
	}

	rateWindow, err := parseDuration(v.GetString("scan.rate_window"), "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid scan rate window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		NATSScanSubject:   v.GetString("nats.scan_subject"),
		JWTSecret:         v.GetString("jwt.secret"),
		LiveCountCacheTTL: cacheTTL,
		LivePollInterval:  pollInterval,
		DuplicatePolicy:   strings.ToLower(v.GetString("duplicate.policy")),
		MinimumPaid:       v.GetFloat64("subscription.minimum_paid"),
		ScanRateMax:       v.GetInt("scan.rate_max"),
		ScanRateWindow:    rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ScanRateMax <= 0 {
		cfg.ScanRateMax = 30
	}

	return cfg, nil
}

func parseDuration(value, fallback string) (time.Duration, error) {
	if value == "" {
		value = fallback
	}
	return time.ParseDuration(value)
}
