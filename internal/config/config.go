package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/efreitasn/portfoliosim/internal/domain"
	"github.com/shopspring/decimal"
)

// Config holds all runtime configuration for the portfolio simulator.
type Config struct {
	Port             int
	LogLevel         string
	SnapshotPath     string
	DefaultCash      decimal.Decimal
	Currency         string
	MarketFile       string // empty selects the built-in market
	TickInterval     time.Duration
	EquityVolatility decimal.Decimal // percent per step
	EquityFloor      decimal.Decimal
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	defaultCash, err := getDecimal("DEFAULT_CASH", decimal.NewFromInt(10000))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_CASH: %w", err)
	}
	if defaultCash.IsNegative() {
		return nil, fmt.Errorf("invalid DEFAULT_CASH: %s, must not be negative", defaultCash)
	}

	currency := getStr("CURRENCY", domain.DefaultCurrency)
	if !domain.IsKnownCurrency(currency) {
		return nil, fmt.Errorf("invalid CURRENCY: %q, must be an ISO 4217 code", currency)
	}

	tickInterval, err := getDuration("TICK_INTERVAL", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: %w", err)
	}
	if tickInterval < 0 {
		return nil, fmt.Errorf("invalid TICK_INTERVAL: %v, must not be negative", tickInterval)
	}

	volatility, err := getDecimal("EQUITY_VOLATILITY", decimal.NewFromInt(10))
	if err != nil {
		return nil, fmt.Errorf("invalid EQUITY_VOLATILITY: %w", err)
	}
	if volatility.IsNegative() {
		return nil, fmt.Errorf("invalid EQUITY_VOLATILITY: %s, must not be negative", volatility)
	}

	floor, err := getDecimal("EQUITY_FLOOR", decimal.NewFromInt(1))
	if err != nil {
		return nil, fmt.Errorf("invalid EQUITY_FLOOR: %w", err)
	}
	if floor.IsNegative() {
		return nil, fmt.Errorf("invalid EQUITY_FLOOR: %s, must not be negative", floor)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:             port,
		LogLevel:         logLevel,
		SnapshotPath:     getStr("SNAPSHOT_PATH", "portfolio.json"),
		DefaultCash:      defaultCash,
		Currency:         currency,
		MarketFile:       os.Getenv("MARKET_FILE"),
		TickInterval:     tickInterval,
		EquityVolatility: volatility,
		EquityFloor:      floor,
		ReadTimeout:      readTimeout,
		WriteTimeout:     writeTimeout,
		IdleTimeout:      idleTimeout,
		ShutdownTimeout:  shutdownTimeout,
	}, nil
}

// EquityRule returns the configured equity price walk.
func (c *Config) EquityRule() domain.EquityRule {
	rule := domain.DefaultEquityRule()
	rule.Volatility = c.EquityVolatility
	rule.Floor = c.EquityFloor
	return rule
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func getDecimal(key string, defaultVal decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return decimal.NewFromString(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
