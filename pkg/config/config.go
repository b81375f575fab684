// ==============================================================================
// CONFIG PACKAGE - pkg/config/config.go
// ==============================================================================
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server     ServerConfig
	Simulation SimulationConfig
}

type ServerConfig struct {
	Host         string
	Port         string `validate:"required"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type SimulationConfig struct {
	// OutputDir receives every generated batch artifact.
	OutputDir string `validate:"required"`
	// StepDelay paces the narrated steps for a live demo. Zero disables pacing.
	StepDelay time.Duration `validate:"min=0"`
	// MerchantFeeRate is the acquirer's cut applied to payout records.
	MerchantFeeRate decimal.Decimal
	// MerchantWinRate is the probability that a chargeback resolves in the
	// merchant's favor. The source systems disagreed (0.5 vs 0.7); it is an
	// explicit knob here.
	MerchantWinRate float64 `validate:"gte=0,lte=1"`
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Simulation: SimulationConfig{
			OutputDir:       getEnv("OUTPUT_DIR", "data/output"),
			StepDelay:       getDurationEnv("STEP_DELAY", 500*time.Millisecond),
			MerchantFeeRate: getDecimalEnv("MERCHANT_FEE_RATE", decimal.NewFromFloat(0.02)),
			MerchantWinRate: getFloatEnv("CHARGEBACK_MERCHANT_WIN_RATE", 0.70),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDecimalEnv(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
