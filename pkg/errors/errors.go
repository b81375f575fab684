// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrChargebackNotFound       = errors.New("chargeback not found")
	ErrInvalidStatusTransition  = errors.New("invalid status transition")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrUnknownMerchant          = errors.New("merchant not registered with acquirer")
	ErrUnknownCardholder        = errors.New("cardholder not registered with issuer")
	ErrTransactionNotDisputable = errors.New("transaction not eligible for dispute")
	ErrInvalidAmount            = errors.New("amount must be greater than zero")
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
