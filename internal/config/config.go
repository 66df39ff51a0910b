package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/campusvote/ballot-service/internal/utils"
)

// Config holds all application configuration for the ballot service.
type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	DBUrl            string

	// OTP engine knobs
	OTPLength         int
	OTPExpiry         time.Duration
	MaxOTPAttempts    int
	MaxOTPResends     int
	OTPResendCooldown time.Duration

	// Ballot access session
	AccessTokenTTL time.Duration

	// Lifecycle scheduler
	LifecycleCronSpec string

	// Internal endpoints (lifecycle trigger) are gated by an HS256 JWT
	// signed with this secret.
	InternalJWTSecret []byte

	// Delivery providers
	SendGridAPIKey    string
	SendgridFromEmail string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromPhone   string

	// When true, code delivery is skipped entirely (local development
	// without provider credentials). Codes are never logged either way.
	DryRunDelivery bool
}

const DefaultAppName = "ballot-service"

// Defaults for time-based configuration.
const (
	DefaultOTPLength         = 6
	DefaultOTPExpiry         = 10 * time.Minute
	DefaultMaxOTPAttempts    = 5
	DefaultMaxOTPResends     = 5
	DefaultOTPResendCooldown = 60 * time.Second
	DefaultAccessTokenTTL    = 15 * time.Minute
	DefaultLifecycleCronSpec = "@every 1m"
)

// LoadConfig reads the environment (optionally seeded from a local .env)
// and returns a *Config. Missing required values are fatal.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		utils.Logger.Debug("No .env file found; relying on process environment")
	}

	cfg := &Config{
		OrganizationName:  envOr("ORGANIZATION_NAME", "CampusVote"),
		AppName:           envOr("APP_NAME", DefaultAppName),
		AppPort:           envOr("APP_PORT", "8080"),
		AppUrl:            envOr("APP_URL", "http://localhost:8080"),
		DBUrl:             os.Getenv("DATABASE_URL"),
		OTPLength:         envIntOr("OTP_LENGTH", DefaultOTPLength),
		OTPExpiry:         envDurationOr("OTP_EXPIRY", DefaultOTPExpiry),
		MaxOTPAttempts:    envIntOr("MAX_OTP_ATTEMPTS", DefaultMaxOTPAttempts),
		MaxOTPResends:     envIntOr("MAX_OTP_RESENDS", DefaultMaxOTPResends),
		OTPResendCooldown: envDurationOr("OTP_RESEND_COOLDOWN", DefaultOTPResendCooldown),
		AccessTokenTTL:    envDurationOr("ACCESS_TOKEN_TTL", DefaultAccessTokenTTL),
		LifecycleCronSpec: envOr("LIFECYCLE_CRON_SPEC", DefaultLifecycleCronSpec),
		InternalJWTSecret: []byte(os.Getenv("INTERNAL_JWT_SECRET")),
		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendgridFromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromPhone:   os.Getenv("TWILIO_FROM_PHONE"),
		DryRunDelivery:    envOr("DRY_RUN_DELIVERY", "false") == "true",
	}

	if cfg.DBUrl == "" {
		utils.Logger.Fatal("DATABASE_URL is required")
	}
	if len(cfg.InternalJWTSecret) == 0 {
		utils.Logger.Fatal("INTERNAL_JWT_SECRET is required")
	}
	if !cfg.DryRunDelivery && cfg.SendGridAPIKey == "" {
		utils.Logger.Fatal("SENDGRID_API_KEY is required unless DRY_RUN_DELIVERY=true")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.Logger.Warnf("Invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.Logger.Warnf("Invalid %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
