package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Back-office and order placement
	AdminAPIKey string

	Gateway GatewayConfig
	Emi     EmiConfig

	// Events retained per user for websocket replay
	WSHistorySize int
	WSHistoryTTL  time.Duration

	// Optional distributed batch lock; empty disables it
	RedisURL string

	// S3 Storage for batch reports; empty bucket disables archiving
	S3 S3Config
}

// GatewayConfig holds payment gateway credentials
type GatewayConfig struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Timeout       time.Duration
}

// EmiConfig holds EMI engine tunables
type EmiConfig struct {
	GracePeriodDays int
	PenaltyMode     string
	PenaltyValue    decimal.Decimal
	BatchEnabled    bool
	BatchInterval   time.Duration
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for LocalStack local dev
}

// Enabled reports whether report archiving is configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	gatewayTimeout, err := getEnvDuration("GATEWAY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	batchInterval, err := getEnvDuration("EMI_BATCH_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	gracePeriodDays, err := getEnvInt("EMI_GRACE_PERIOD_DAYS", 5)
	if err != nil {
		return nil, err
	}
	batchEnabled, err := getEnvBool("EMI_BATCH_ENABLED", true)
	if err != nil {
		return nil, err
	}
	wsHistorySize, err := getEnvInt("WS_HISTORY_SIZE", 50)
	if err != nil {
		return nil, err
	}
	wsHistoryTTL, err := getEnvDuration("WS_HISTORY_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	penaltyValue, err := decimal.NewFromString(getEnv("EMI_PENALTY_VALUE", "100"))
	if err != nil {
		return nil, fmt.Errorf("EMI_PENALTY_VALUE must be a number: %w", err)
	}

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		Env:           getEnv("ENV", "development"),
		AdminAPIKey:   getEnv("ADMIN_API_KEY", ""),
		Gateway: GatewayConfig{
			BaseURL:       getEnv("GATEWAY_BASE_URL", "https://api.razorpay.com/v1"),
			KeyID:         getEnv("GATEWAY_KEY_ID", ""),
			KeySecret:     getEnv("GATEWAY_KEY_SECRET", ""),
			WebhookSecret: getEnv("GATEWAY_WEBHOOK_SECRET", ""),
			Timeout:       gatewayTimeout,
		},
		Emi: EmiConfig{
			GracePeriodDays: gracePeriodDays,
			PenaltyMode:     getEnv("EMI_PENALTY_MODE", "flat"),
			PenaltyValue:    penaltyValue,
			BatchEnabled:    batchEnabled,
			BatchInterval:   batchInterval,
		},
		WSHistorySize: wsHistorySize,
		WSHistoryTTL:  wsHistoryTTL,
		RedisURL:      getEnv("REDIS_URL", ""),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.AdminAPIKey == "" {
		return fmt.Errorf("ADMIN_API_KEY is required")
	}
	if c.Gateway.KeyID == "" || c.Gateway.KeySecret == "" {
		return fmt.Errorf("GATEWAY_KEY_ID and GATEWAY_KEY_SECRET are required")
	}
	if c.Gateway.WebhookSecret == "" {
		return fmt.Errorf("GATEWAY_WEBHOOK_SECRET is required")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if c.Emi.GracePeriodDays < 0 {
		return fmt.Errorf("EMI_GRACE_PERIOD_DAYS must not be negative")
	}
	if c.Emi.PenaltyValue.IsNegative() {
		return fmt.Errorf("EMI_PENALTY_VALUE must not be negative")
	}
	switch strings.ToLower(c.Emi.PenaltyMode) {
	case "flat", "percent":
	default:
		return fmt.Errorf("EMI_PENALTY_MODE must be flat or percent")
	}
	if c.Emi.BatchInterval <= 0 {
		return fmt.Errorf("EMI_BATCH_INTERVAL must be positive")
	}
	if c.WSHistorySize < 0 {
		return fmt.Errorf("WS_HISTORY_SIZE must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return value, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
