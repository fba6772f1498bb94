package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	minJWTKeyLength = 32
)

var (
	ErrMissingJWTKey = errors.New("JWT_KEY is required in production")
	ErrShortJWTKey   = fmt.Errorf("JWT_KEY must be at least %d bytes", minJWTKeyLength)
)

type Config struct {
	Env          string `env:"APP_ENV" envDefault:"development"`
	Port         string `env:"PORT" envDefault:"8080"`
	AllowOrigins string `env:"ALLOW_ORIGINS" envDefault:"http://localhost:3000,http://localhost:5173"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"postgres"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" envDefault:"netchi"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"disable"`

	JWTKey      string        `env:"JWT_KEY"`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"NetChi"`
	JWTAudience string        `env:"JWT_AUDIENCE" envDefault:"NetChiClient"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"24h"`

	OTPTTL         time.Duration `env:"OTP_TTL" envDefault:"5m"`
	OTPMaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"3"`
	// OTPEchoCode puts the issued code in the request-otp response. Not safe
	// outside local testing.
	OTPEchoCode       bool `env:"OTP_ECHO_CODE" envDefault:"true"`
	PasswordMinLength int  `env:"PASSWORD_MIN_LENGTH" envDefault:"6"`

	ReqTimeoutSec  int     `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"1.6667"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`

	SMSBaseURL string `env:"SMS_BASE_URL" envDefault:"https://api.sms.example/v1"`
	SMSAPIKey  string `env:"SMS_API_KEY"`
	SMSSender  string `env:"SMS_SENDER" envDefault:"NetChi"`

	SeedAdminUsername string `env:"SEED_ADMIN_USERNAME"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LOG_DEV"`

	// EphemeralJWTKey is set when a development key was generated at startup.
	EphemeralJWTKey bool `env:"-"`
}

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects a missing or weak signing key in production and fills in
// a random key for development.
func (c *Config) Validate() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = EnvDevelopment
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}

	switch {
	case c.JWTKey == "" && c.IsProduction():
		return ErrMissingJWTKey
	case c.JWTKey == "":
		key, err := randomKey()
		if err != nil {
			return fmt.Errorf("generate development jwt key: %w", err)
		}
		c.JWTKey = key
		c.EphemeralJWTKey = true
	case len(c.JWTKey) < minJWTKeyLength:
		return ErrShortJWTKey
	}

	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.OTPTTL <= 0 {
		return errors.New("OTP_TTL must be positive")
	}
	if c.OTPMaxAttempts < 1 {
		return errors.New("OTP_MAX_ATTEMPTS must be at least 1")
	}
	if c.PasswordMinLength < 1 {
		return errors.New("PASSWORD_MIN_LENGTH must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// DSN returns DATABASE_URL when set, otherwise builds one from the DB_* keys.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Origins splits ALLOW_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func randomKey() (string, error) {
	b := make([]byte, minJWTKeyLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
