package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultListenAddr      = ":8080"
	defaultJWTAccessTTL    = "24h"
	defaultGatewayTimeout  = "10s"
	defaultBookingTTL      = "30m"
	defaultGatewayName     = "sandbox"
	defaultCancelPolicy    = "defer"
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultGatewaySecret   = "change-me-gateway-secret"
	defaultDefaultCurrency = "SAR"
)

type Config struct {
	AppEnv     string
	ListenAddr string
	DatabaseDSN string

	JWTSecret    string
	JWTAccessTTL time.Duration

	// Gateway settings. Name selects the adapter: "sandbox" (in-process) or
	// "http" (real endpoint). The secret signs outbound requests and verifies
	// webhook signatures. Timeout bounds every gateway call.
	GatewayName    string
	GatewayBaseURL string
	GatewaySecret  string
	GatewayTimeout time.Duration

	// CancellationPolicy: "defer" leaves a captured payment for a manual
	// refund; "auto" refunds the full remaining amount on cancel.
	CancellationPolicy string

	// BookingTTL is how long an unpaid pending booking may live before the
	// expiry sweeper cancels it.
	BookingTTL time.Duration

	DefaultCurrency string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err == nil {
		log.Println("loaded configuration from .env file")
	}

	cfg := &Config{
		AppEnv:             strings.ToLower(getEnv("APP_ENV", "dev")),
		ListenAddr:         getEnv("LISTEN_ADDR", defaultListenAddr),
		DatabaseDSN:        os.Getenv("DATABASE_URL"),
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		GatewayName:        getEnv("GATEWAY_NAME", defaultGatewayName),
		GatewayBaseURL:     os.Getenv("GATEWAY_BASE_URL"),
		GatewaySecret:      getEnv("GATEWAY_SECRET", defaultGatewaySecret),
		CancellationPolicy: getEnv("CANCELLATION_POLICY", defaultCancelPolicy),
		DefaultCurrency:    getEnv("DEFAULT_CURRENCY", defaultDefaultCurrency),
	}

	var err error
	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL); err != nil {
		return nil, err
	}
	if cfg.GatewayTimeout, err = parseDurationEnv("GATEWAY_TIMEOUT", defaultGatewayTimeout); err != nil {
		return nil, err
	}
	if cfg.BookingTTL, err = parseDurationEnv("BOOKING_TTL", defaultBookingTTL); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.CancellationPolicy != "defer" && cfg.CancellationPolicy != "auto" {
		return fmt.Errorf("CANCELLATION_POLICY must be one of: defer, auto")
	}
	if cfg.GatewayName != "sandbox" && cfg.GatewayName != "http" {
		return fmt.Errorf("GATEWAY_NAME must be one of: sandbox, http")
	}
	if cfg.GatewayName == "http" && cfg.GatewayBaseURL == "" {
		return fmt.Errorf("GATEWAY_BASE_URL is required when GATEWAY_NAME=http")
	}
	if isProdLike(cfg.AppEnv) {
		if cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.GatewaySecret == defaultGatewaySecret {
			return fmt.Errorf("in prod/release GATEWAY_SECRET must be set and not default")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	return env == "prod" || env == "production" || env == "release"
}

func getEnv(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(name, def string) (time.Duration, error) {
	raw := getEnv(name, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", name, raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return d, nil
}
