package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Env         string `env:"ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	JWTAccessExpiry time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`

	Invites InviteConfig
	Limiter LimiterConfig
	SMTP    SMTPConfig

	RedisURL      string `env:"REDIS_URL"`
	SweepSchedule string `env:"SWEEP_SCHEDULE" envDefault:"@every 1h"`
	MetricsAddr   string `env:"METRICS_ADDR" envDefault:":9090"`
}

type InviteConfig struct {
	TTLDays          int      `env:"INVITE_TTL_DAYS" envDefault:"7"`
	Policy           string   `env:"INVITE_POLICY" envDefault:"bootstrap"`
	BootstrapPromote bool     `env:"BOOTSTRAP_PROMOTE" envDefault:"false"`
	ExclusiveKinds   []string `env:"EXCLUSIVE_KINDS" envDefault:"coach" envSeparator:","`
}

type LimiterConfig struct {
	Attempts int           `env:"REDEEM_ATTEMPTS_PER_WINDOW" envDefault:"10"`
	Window   time.Duration `env:"REDEEM_WINDOW" envDefault:"1m"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     string `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Invites.TTLDays < 1 || c.Invites.TTLDays > 30 {
		return fmt.Errorf("INVITE_TTL_DAYS must be between 1 and 30, got %d", c.Invites.TTLDays)
	}
	if c.Limiter.Attempts < 1 {
		return fmt.Errorf("REDEEM_ATTEMPTS_PER_WINDOW must be positive, got %d", c.Limiter.Attempts)
	}
	if c.Limiter.Window <= 0 {
		return fmt.Errorf("REDEEM_WINDOW must be positive, got %s", c.Limiter.Window)
	}
	for i, kind := range c.Invites.ExclusiveKinds {
		c.Invites.ExclusiveKinds[i] = strings.ToLower(strings.TrimSpace(kind))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
