// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// Validate ensures critical configuration is present and sane.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Simulation.OutputDir) == "" {
		return fmt.Errorf("missing required configuration: OUTPUT_DIR")
	}
	if c.Simulation.MerchantFeeRate.IsNegative() || c.Simulation.MerchantFeeRate.GreaterThanOrEqual(decimalOne()) {
		return fmt.Errorf("MERCHANT_FEE_RATE must be in [0, 1): %s", c.Simulation.MerchantFeeRate)
	}

	if err := validate.Struct(c); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMessages []string
			for _, e := range validationErrors {
				errMessages = append(errMessages, fmt.Sprintf(
					"Field '%s' failed validation '%s'",
					e.Field(),
					e.Tag(),
				))
			}
			return fmt.Errorf("validation failed: %v", errMessages)
		}
		return err
	}
	return nil
}

func decimalOne() decimal.Decimal {
	return decimal.NewFromInt(1)
}
