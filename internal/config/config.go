package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go-stock-reconciler/pkg/validator"
)

type Config struct {
	HTTPPort     string
	DatabaseDSN  string
	GormLogLevel string
	JWTSecret    string
	JWTIssuer    string
	LogLevel     string
	OtelEndpoint string

	// SyncInterval drives the background resync loop; zero disables it.
	SyncInterval       time.Duration
	SyncConcurrency    int
	InvoiceMaxAttempts int
	DirectSalePrefix   string
	EmployeeSalePrefix string
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "3000"),
		DatabaseDSN:        databaseDSN(),
		GormLogLevel:       getEnv("GORM_LOG_LEVEL", "warn"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTIssuer:          getEnv("JWT_ISSUER", "console"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		OtelEndpoint:       os.Getenv("OTEL_ENDPOINT"),
		DirectSalePrefix:   getEnv("DIRECT_SALE_PREFIX", "INV"),
		EmployeeSalePrefix: getEnv("EMPLOYEE_SALE_PREFIX", "EMP"),
	}

	var err error
	if cfg.SyncInterval, err = time.ParseDuration(getEnv("SYNC_INTERVAL", "0s")); err != nil {
		return nil, fmt.Errorf("SYNC_INTERVAL: %w", err)
	}
	if cfg.SyncConcurrency, err = strconv.Atoi(getEnv("SYNC_CONCURRENCY", "8")); err != nil || cfg.SyncConcurrency < 1 {
		return nil, errors.New("SYNC_CONCURRENCY must be a positive integer")
	}
	if cfg.InvoiceMaxAttempts, err = strconv.Atoi(getEnv("INVOICE_MAX_ATTEMPTS", "10")); err != nil || cfg.InvoiceMaxAttempts < 1 {
		return nil, errors.New("INVOICE_MAX_ATTEMPTS must be a positive integer")
	}
	if err := validator.ValidateVar(cfg.DirectSalePrefix, "required,invoice_prefix"); err != nil {
		return nil, fmt.Errorf("DIRECT_SALE_PREFIX %q must be 1-10 upper-case letters or digits", cfg.DirectSalePrefix)
	}
	if err := validator.ValidateVar(cfg.EmployeeSalePrefix, "required,invoice_prefix"); err != nil {
		return nil, fmt.Errorf("EMPLOYEE_SALE_PREFIX %q must be 1-10 upper-case letters or digits", cfg.EmployeeSalePrefix)
	}

	return cfg, nil
}

// RequireJWT checks the token secret. Only binaries that verify tokens call it.
func (c *Config) RequireJWT() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be set and at least 32 characters")
	}
	return nil
}

func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_NAME", "stock"),
		getEnv("DB_PORT", "5432"),
	)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
