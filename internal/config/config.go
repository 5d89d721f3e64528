package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	AMQP      AMQPConfig      `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Business  BusinessConfig  `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `mapstructure:"DATABASE_AUTO_MIGRATE"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type AMQPConfig struct {
	URL      string `mapstructure:"AMQP_URL"`
	Exchange string `mapstructure:"AMQP_EXCHANGE"`
}

type SchedulerConfig struct {
	OverdueSpec string `mapstructure:"SCHEDULER_OVERDUE_SPEC"`
	WarmupSpec  string `mapstructure:"SCHEDULER_WARMUP_SPEC"`
	Timezone    string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	ReportCacheTTL time.Duration `mapstructure:"REPORT_CACHE_TTL"`
	IdempotencyTTL time.Duration `mapstructure:"IDEMPOTENCY_TTL"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVER_PORT":                "8080",
	"SERVER_HOST":                "0.0.0.0",
	"ENV":                        "development",
	"SERVER_READ_TIMEOUT":        "15s",
	"SERVER_WRITE_TIMEOUT":       "15s",
	"DATABASE_URL":               "",
	"DATABASE_MAX_OPEN_CONNS":    25,
	"DATABASE_MAX_IDLE_CONNS":    5,
	"DATABASE_CONN_MAX_LIFETIME": "30m",
	"DATABASE_AUTO_MIGRATE":      true,
	"REDIS_ADDR":                 "localhost:6379",
	"REDIS_PASSWORD":             "",
	"REDIS_DB":                   0,
	"AMQP_URL":                   "",
	"AMQP_EXCHANGE":              "coop.events",
	"SCHEDULER_OVERDUE_SPEC":     "0 0 1 * * *",
	"SCHEDULER_WARMUP_SPEC":      "0 30 5 * * *",
	"SCHEDULER_TIMEZONE":         "Asia/Jakarta",
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "json",
	"REPORT_CACHE_TTL":           "10m",
	"IDEMPOTENCY_TTL":            "24h",
	"HEALTH_CHECK_TIMEOUT":       "5s",
}

// Load reads configuration from environment variables and optional .env files
func Load(envFiles ...string) (*Config, error) {
	// Don't fail if .env file doesn't exist
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else {
		_ = godotenv.Load(envFiles...)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("DATABASE_MAX_OPEN_CONNS must be greater than 0")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}

	if c.Business.ReportCacheTTL < 0 {
		return fmt.Errorf("REPORT_CACHE_TTL must not be negative")
	}

	if c.Business.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be greater than 0")
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be greater than 0")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for key, spec := range map[string]string{
		"SCHEDULER_OVERDUE_SPEC": c.Scheduler.OverdueSpec,
		"SCHEDULER_WARMUP_SPEC":  c.Scheduler.WarmupSpec,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s must be a valid cron spec: %w", key, err)
		}
	}

	return nil
}

// EventsEnabled reports whether domain events should go to RabbitMQ
func (c *Config) EventsEnabled() bool {
	return c.AMQP.URL != ""
}

// SchedulerLocation returns the scheduler time zone
func (c *Config) SchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
