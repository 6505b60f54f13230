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
	ScheduleCacheTTL     time.Duration
	ScheduleLockTTL      time.Duration
	ScheduleEventChannel string
	MonthlyPrice         float64
	QuarterlyPrice       float64
	YearlyPrice          float64
	ImportMaxBytes       int64
	CORSAllowOrigins     string
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
	v.SetEnvPrefix("MAESTRO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Maestro API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("schedule.cache_ttl", "10m")
	v.SetDefault("schedule.lock_ttl", "15s")
	v.SetDefault("schedule.events_channel", "maestro:schedule")
	v.SetDefault("payments.monthly_price", 120)
	v.SetDefault("payments.quarterly_price", 330)
	v.SetDefault("payments.yearly_price", 1200)
	v.SetDefault("import.max_bytes", 2<<20)
	v.SetDefault("cors.allow_origins", "*")

	cacheTTL, err := parseDuration(v.GetString("schedule.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid schedule cache ttl: %w", err)
	}

	lockTTL, err := parseDuration(v.GetString("schedule.lock_ttl"), 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid schedule lock ttl: %w", err)
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		NATSURL:              v.GetString("nats.url"),
		JWTSecret:            v.GetString("jwt.secret"),
		ScheduleCacheTTL:     cacheTTL,
		ScheduleLockTTL:      lockTTL,
		ScheduleEventChannel: v.GetString("schedule.events_channel"),
		MonthlyPrice:         v.GetFloat64("payments.monthly_price"),
		QuarterlyPrice:       v.GetFloat64("payments.quarterly_price"),
		YearlyPrice:          v.GetFloat64("payments.yearly_price"),
		ImportMaxBytes:       v.GetInt64("import.max_bytes"),
		CORSAllowOrigins:     v.GetString("cors.allow_origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MonthlyPrice < 0 || cfg.QuarterlyPrice < 0 || cfg.YearlyPrice < 0 {
		return Config{}, fmt.Errorf("payment prices must not be negative")
	}

	if cfg.ImportMaxBytes <= 0 {
		cfg.ImportMaxBytes = 2 << 20
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
